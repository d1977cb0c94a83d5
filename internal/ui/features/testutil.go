// Package features provides shared test utilities for feature handler tests.
package features

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/dysregnet/dysregnet-explorer/internal/analysis"
	"github.com/dysregnet/dysregnet-explorer/internal/cache"
	"github.com/dysregnet/dysregnet-explorer/internal/graphdb"
	"github.com/dysregnet/dysregnet-explorer/internal/kv"
	"github.com/dysregnet/dysregnet-explorer/internal/neighborhood"
	"github.com/dysregnet/dysregnet-explorer/internal/reference"
	"github.com/dysregnet/dysregnet-explorer/internal/session"
	"github.com/dysregnet/dysregnet-explorer/internal/testutil"
	"github.com/dysregnet/dysregnet-explorer/internal/ui/features/common"
	"github.com/dysregnet/dysregnet-explorer/internal/ui/notifier"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// StubRunner returns a fixed result after reporting progress, or blocks
// until cancelled when Block is set.
type StubRunner struct {
	Result *core.Result
	Err    error
	Block  bool
}

// Run implements session.Runner.
func (s *StubRunner) Run(ctx context.Context, in analysis.Inputs, _ core.Parameters, progress analysis.ProgressFunc) (*core.Result, error) {
	total := 0
	if in.Network != nil {
		total = len(in.Network.Edges)
	}
	progress(0, total)
	if s.Block {
		<-ctx.Done()
		return nil, core.ErrCancelled
	}
	if s.Err != nil {
		return nil, s.Err
	}
	progress(total, total)
	return s.Result, nil
}

// Querier answers graph queries from a function.
type Querier func(cypher string, params map[string]any) ([]graphdb.Row, error)

// Query implements graphdb.Querier.
func (q Querier) Query(_ context.Context, cypher string, params map[string]any) ([]graphdb.Row, error) {
	return q(cypher, params)
}

// Close implements graphdb.Querier.
func (q Querier) Close(context.Context) error { return nil }

// TestFixture holds all dependencies needed for feature handler tests.
type TestFixture struct {
	Deps     *common.Deps
	RefDir   string
	KV       kv.Store
	Notifier *notifier.Notifier
}

// FixtureOption customizes a fixture.
type FixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	runner  session.Runner
	querier graphdb.Querier
}

// WithRunner sets the session runner.
func WithRunner(r session.Runner) FixtureOption {
	return func(c *fixtureConfig) { c.runner = r }
}

// WithGraph enables the cohort routes backed by q.
func WithGraph(q graphdb.Querier) FixtureOption {
	return func(c *fixtureConfig) { c.querier = q }
}

// SetupTestFixture builds dependencies over an in-memory cache and a
// temporary reference directory.
func SetupTestFixture(t *testing.T, opts ...FixtureOption) *TestFixture {
	t.Helper()

	cfg := fixtureConfig{runner: &StubRunner{}}
	for _, o := range opts {
		o(&cfg)
	}

	logger := testutil.NewTestLogger(t)
	refDir := t.TempDir()

	store := kv.NewMemoryStore()
	notify := notifier.New()
	resultCache := cache.New(cache.Config{Store: store, Timeout: time.Second})
	manager := session.NewManager(session.Config{
		Runner:    cfg.runner,
		Cache:     resultCache,
		Publisher: notify,
	})
	t.Cleanup(manager.Close)

	deps := &common.Deps{
		Catalog:      reference.NewCatalog(reference.CatalogConfig{Source: reference.NewDirSource(refDir), StripVersions: true}),
		Sessions:     manager,
		Cache:        resultCache,
		Assembler:    neighborhood.NewAssembler(neighborhood.Config{}),
		Notifier:     notify,
		SessionStore: NewTestSessionStore(),
		Logger:       logger,
	}
	if cfg.querier != nil {
		deps.Graph = graphdb.NewStore(graphdb.Config{Querier: cfg.querier, Timeout: time.Second})
	}

	return &TestFixture{Deps: deps, RefDir: refDir, KV: store, Notifier: notify}
}

// WriteReference writes a GCT control dataset into the reference directory.
func (f *TestFixture) WriteReference(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.RefDir, name), []byte(content), 0600))
}

// Multipart builds a multipart body from field name to file content. Keys
// prefixed with "=" are sent as plain values.
func Multipart(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		if field, ok := strings.CutPrefix(name, "="); ok {
			require.NoError(t, mw.WriteField(field, content))
			continue
		}
		fw, err := mw.CreateFormFile(name, name+".csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

// RequestWithPathParam wraps a request with chi URL params.
func RequestWithPathParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// WithCookies copies the cookies set by a previous response onto r.
func WithCookies(r *http.Request, from http.Header) *http.Request {
	for _, c := range (&http.Response{Header: from}).Cookies() {
		r.AddCookie(c)
	}
	return r
}

// NewTestNotifier creates a notifier for testing.
func NewTestNotifier() *notifier.Notifier {
	return notifier.New()
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}
