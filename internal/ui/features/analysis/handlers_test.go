package analysis

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analysisrun "github.com/dysregnet/dysregnet-explorer/internal/analysis"
	"github.com/dysregnet/dysregnet-explorer/internal/session"
	"github.com/dysregnet/dysregnet-explorer/internal/ui/features"
	"github.com/dysregnet/dysregnet-explorer/internal/ui/features/common"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

func testUpload() *session.Upload {
	return &session.Upload{
		Inputs: analysisrun.Inputs{
			Expression: &core.ExpressionMatrix{
				Samples: []string{"s1", "s2"},
				Genes:   []core.GeneID{"A", "B"},
				Values:  [][]float64{{1, 2}, {3, 4}},
			},
			Meta: &core.Metadata{
				Samples: []string{"s1", "s2"},
				Columns: []string{"condition", "age"},
				Values:  [][]string{{"0", "40"}, {"1", "52"}},
			},
			Network: &core.Network{Edges: []core.EdgeKey{{Regulator: "A", Target: "B"}}},
		},
	}
}

func testResult() *core.Result {
	return &core.Result{
		Samples: []string{"s2"},
		Edges:   []core.EdgeKey{{Regulator: "A", Target: "B"}},
		Values:  [][]float64{{0.5}},
	}
}

// owned returns the cookie header of a browser that has uploaded testUpload.
func owned(t *testing.T, f *features.TestFixture) http.Header {
	t.Helper()
	rec := httptest.NewRecorder()
	owner, err := common.OwnerID(rec, httptest.NewRequest(http.MethodGet, "/", nil), f.Deps.SessionStore)
	require.NoError(t, err)
	f.Deps.Sessions.SetUpload(owner, testUpload())
	return rec.Header()
}

func start(h *Handlers, cookies http.Header, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookies != nil {
		req = features.WithCookies(req, cookies)
	}
	rec := httptest.NewRecorder()
	h.Start(rec, req)
	return rec
}

func TestHandlers_StartAndProgress(t *testing.T) {
	f := features.SetupTestFixture(t, features.WithRunner(&features.StubRunner{Result: testResult()}))
	h := NewHandlers(f.Deps)
	cookies := owned(t, f)

	rec := start(h, cookies, `{"condition":"condition","continuous_covariates":["age"]}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var started StartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	require.NotEmpty(t, started.SessionID)

	job, err := f.Deps.Sessions.Job(started.SessionID)
	require.NoError(t, err)
	select {
	case <-job.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
	}

	rec = httptest.NewRecorder()
	h.Status(rec, features.RequestWithPathParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", started.SessionID))
	require.Equal(t, http.StatusOK, rec.Code)
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, session.StatusSucceeded, snap.Status)
	assert.Equal(t, 1, snap.Current)
	assert.Equal(t, 1, snap.Total)

	rec = httptest.NewRecorder()
	h.ProgressSSE(rec, features.RequestWithPathParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", started.SessionID))
	assert.Contains(t, rec.Body.String(), "datastar-patch-signals")
	assert.Contains(t, rec.Body.String(), `"status":"succeeded"`)

	entry, err := f.Deps.Cache.Get(t.Context(), started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"age"}, entry.Parameters.ContinuousCovariates)
	assert.Equal(t, core.DefaultBonferroniAlpha, entry.Parameters.BonferroniAlpha)
}

func TestHandlers_StartRejects(t *testing.T) {
	f := features.SetupTestFixture(t)
	h := NewHandlers(f.Deps)
	cookies := owned(t, f)

	tests := []struct {
		name    string
		cookies http.Header
		body    string
	}{
		{name: "no upload", body: `{"condition":"condition"}`},
		{name: "no condition", cookies: cookies, body: `{}`},
		{name: "unknown condition", cookies: cookies, body: `{"condition":"stage"}`},
		{name: "non binary condition", cookies: cookies, body: `{"condition":"age"}`},
		{name: "covariate is condition", cookies: cookies, body: `{"condition":"condition","categorical_covariates":["condition"]}`},
		{name: "unknown covariate", cookies: cookies, body: `{"condition":"condition","continuous_covariates":["bmi"]}`},
		{name: "alpha out of range", cookies: cookies, body: `{"condition":"condition","bonferroni_alpha":2}`},
		{name: "r squared out of range", cookies: cookies, body: `{"condition":"condition","r_squared_threshold":1.5}`},
		{name: "not json", cookies: cookies, body: `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := start(h, tt.cookies, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), string(core.KindInputValidation))
		})
	}
}

func TestHandlers_UnknownRun(t *testing.T) {
	f := features.SetupTestFixture(t)
	h := NewHandlers(f.Deps)

	for _, handler := range []http.HandlerFunc{h.Status, h.ProgressSSE, h.Cancel} {
		rec := httptest.NewRecorder()
		handler(rec, features.RequestWithPathParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "nope"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}
}
