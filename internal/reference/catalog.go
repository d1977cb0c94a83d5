package reference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dysregnet/dysregnet-explorer/internal/table"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// ErrUnknownOption is returned for a reference name the source does not have.
var ErrUnknownOption = errors.New("unknown reference option")

var versionSuffix = regexp.MustCompile(`\.[0-9]+$`)

// StripVersion removes a trailing ".<digits>" version from an accession id.
func StripVersion(id core.GeneID) core.GeneID {
	return versionSuffix.ReplaceAllString(id, "")
}

// StripMatrixVersions applies StripVersion to every gene column of m.
// Columns that collapse onto the same id keep the first one.
func StripMatrixVersions(m *core.ExpressionMatrix) *core.ExpressionMatrix {
	genes := make([]core.GeneID, len(m.Genes))
	for i, g := range m.Genes {
		genes[i] = StripVersion(g)
	}
	out := &core.ExpressionMatrix{Samples: m.Samples, Genes: genes, Values: m.Values}
	return out.UniqueGenes()
}

// StripNetworkVersions applies StripVersion to both ends of every edge.
func StripNetworkVersions(n *core.Network) *core.Network {
	out := &core.Network{Edges: make([]core.EdgeKey, len(n.Edges))}
	for i, e := range n.Edges {
		out.Edges[i] = core.EdgeKey{Regulator: StripVersion(e.Regulator), Target: StripVersion(e.Target)}
	}
	return out
}

// Option is one selectable control dataset.
type Option struct {
	Value string `json:"value"` // file name
	Label string `json:"label"` // e.g. "adipose subcutaneous"
	Title string `json:"title"` // e.g. "Adipose Subcutaneous"
}

var titleCaser = cases.Title(language.English)

// OptionLabel derives a display label from a file name such as
// "gene_tpm_adipose_subcutaneous.gct": the extension and the first two
// underscore separated tokens are dropped.
func OptionLabel(name string) string {
	base := strings.TrimSuffix(name, ".gz")
	base = strings.TrimSuffix(base, ".gct")
	parts := strings.Split(base, "_")
	if len(parts) <= 2 {
		return ""
	}
	return strings.Join(parts[2:], " ")
}

func newOption(name string) Option {
	label := OptionLabel(name)
	if label == "" {
		label = name
	}
	return Option{Value: name, Label: label, Title: titleCaser.String(label)}
}

// Dataset is a loaded control dataset. Rows are genes in file order and may
// repeat an id; the reconciler resolves duplicates.
type Dataset struct {
	Option  Option
	IDs     []core.GeneID // Description column
	Names   []string      // Name column (primary accession)
	Samples []string
	Values  [][]float64 // [row][sample]
}

// Duplicates returns the number of rows whose id occurred earlier.
func (d *Dataset) Duplicates() int {
	seen := make(map[core.GeneID]struct{}, len(d.IDs))
	n := 0
	for _, id := range d.IDs {
		if _, ok := seen[id]; ok {
			n++
			continue
		}
		seen[id] = struct{}{}
	}
	return n
}

// CatalogConfig configures a Catalog.
type CatalogConfig struct {
	Source        Source
	StripVersions bool
	Logger        *slog.Logger
}

// Catalog lists reference options and loads datasets on demand.
// Loaded datasets are memoised until the next Refresh.
type Catalog struct {
	source        Source
	stripVersions bool
	logger        *slog.Logger

	mu      sync.RWMutex
	options []Option
	loaded  map[string]*Dataset
}

// NewCatalog creates a Catalog.
func NewCatalog(cfg CatalogConfig) *Catalog {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Catalog{
		source:        cfg.Source,
		stripVersions: cfg.StripVersions,
		logger:        logger,
		loaded:        make(map[string]*Dataset),
	}
}

// Refresh re-lists the source and drops memoised datasets.
func (c *Catalog) Refresh(ctx context.Context) ([]Option, error) {
	names, err := c.source.List(ctx)
	if err != nil {
		return nil, err
	}
	opts := make([]Option, 0, len(names))
	for _, n := range names {
		opts = append(opts, newOption(n))
	}

	c.mu.Lock()
	c.options = opts
	c.loaded = make(map[string]*Dataset)
	c.mu.Unlock()

	c.logger.Debug("reference options refreshed", "count", len(opts))
	return opts, nil
}

// Options returns the known options, listing the source on first use.
func (c *Catalog) Options(ctx context.Context) ([]Option, error) {
	c.mu.RLock()
	opts := c.options
	c.mu.RUnlock()
	if opts != nil {
		return opts, nil
	}
	return c.Refresh(ctx)
}

// StripsVersions reports whether loaded ids have their version removed.
func (c *Catalog) StripsVersions() bool {
	return c.stripVersions
}

// Load returns the dataset for an option value.
func (c *Catalog) Load(ctx context.Context, name string) (*Dataset, error) {
	c.mu.RLock()
	ds, ok := c.loaded[name]
	c.mu.RUnlock()
	if ok {
		return ds, nil
	}

	rc, err := c.source.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	frame, err := table.ReadGCT(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse reference %s: %w", name, err)
	}
	ds, err = c.fromFrame(name, frame)
	if err != nil {
		return nil, err
	}

	if dups := ds.Duplicates(); dups > 0 {
		c.logger.Info("reference has duplicate gene ids, keeping first occurrence", "reference", name, "duplicates", dups)
	}

	c.mu.Lock()
	c.loaded[name] = ds
	c.mu.Unlock()
	return ds, nil
}

// fromFrame strips the Name and Description columns and indexes rows by Description.
func (c *Catalog) fromFrame(name string, f *table.Frame) (*Dataset, error) {
	ds := &Dataset{
		Option:  newOption(name),
		IDs:     make([]core.GeneID, 0, len(f.Rows)),
		Names:   make([]string, 0, len(f.Rows)),
		Samples: append([]string(nil), f.Header[2:]...),
		Values:  make([][]float64, 0, len(f.Rows)),
	}
	for i, row := range f.Rows {
		if len(row) != len(f.Header) {
			return nil, fmt.Errorf("reference %s row %d has %d cells, header has %d", name, i+1, len(row), len(f.Header))
		}
		vals := make([]float64, len(row)-2)
		for j, cell := range row[2:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("reference %s row %d: %q is not a number", name, i+1, cell)
			}
			vals[j] = v
		}

		id := row[1]
		if c.stripVersions {
			id = StripVersion(id)
		}
		ds.IDs = append(ds.IDs, id)
		ds.Names = append(ds.Names, row[0])
		ds.Values = append(ds.Values, vals)
	}
	return ds, nil
}
