package graphdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/dysregnet/dysregnet-explorer/internal/observability"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// DefaultTimeout bounds every query.
const DefaultTimeout = 10 * time.Second

var cohortPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidateCohort rejects cohort ids that are unsafe as a label prefix.
func ValidateCohort(cohort string) error {
	if !cohortPattern.MatchString(cohort) {
		return core.NewValidationError("cohort", fmt.Sprintf("invalid cohort id %q", cohort))
	}
	return nil
}

// Regulation is one edge of a cohort with its precomputed statistics.
type Regulation struct {
	ID       string       `json:"regulation_id"`
	Key      core.EdgeKey `json:"key"`
	Fraction float64      `json:"fraction"`
	// Mean is the mean dysregulation over the cohort's patients.
	Mean float64 `json:"mean"`
}

// PatientValue is one patient's dysregulation of a regulation.
type PatientValue struct {
	PatientID string  `json:"patient_id"`
	Value     float64 `json:"value"`
}

// MethylationRow is one methylation measurement.
type MethylationRow struct {
	GeneID      core.GeneID `json:"gene_id"`
	PatientID   string      `json:"patient_id"`
	Methylation float64     `json:"methylation"`
}

// DysregulationRow is one patient's dysregulation of one regulation.
type DysregulationRow struct {
	RegulationID string  `json:"regulation_id"`
	PatientID    string  `json:"patient_id"`
	Value        float64 `json:"value"`
}

// Config configures a Store.
type Config struct {
	Querier Querier
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Store runs the cohort queries.
type Store struct {
	q       Querier
	timeout time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewStore creates a Store.
func NewStore(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{q: cfg.Querier, timeout: timeout, logger: logger, metrics: cfg.Metrics}
}

// Close releases the underlying driver.
func (s *Store) Close(ctx context.Context) error {
	return s.q.Close(ctx)
}

func (s *Store) run(ctx context.Context, name, cypher string, params map[string]any) ([]Row, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	rows, err := s.q.Query(ctx, cypher, params)
	elapsed := time.Since(start)
	s.metrics.GraphQuery(name, elapsed)
	s.logger.Debug("graph query", "query", name, "rows", len(rows), "duration", elapsed)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) || neo4j.IsConnectivityError(err) {
			return nil, fmt.Errorf("%w: graph database: %s: %w", core.ErrServiceUnavailable, name, err)
		}
		return nil, fmt.Errorf("failed to run %s query: %w", name, err)
	}
	return rows, nil
}

func labels(cohort string) (gene, regulation, patient string, err error) {
	if err := ValidateCohort(cohort); err != nil {
		return "", "", "", err
	}
	return cohort + "_Gene", cohort + "_Regulation", cohort + "_Patient", nil
}

// CohortIDs lists every cohort.
func (s *Store) CohortIDs(ctx context.Context) ([]string, error) {
	rows, err := s.run(ctx, "cohorts", `MATCH (c:Cancer) RETURN c.cancer_id AS id ORDER BY id`, nil)
	if err != nil {
		return nil, err
	}
	return stringColumn(rows, "id"), nil
}

// GeneIDs lists the genes of a cohort.
func (s *Store) GeneIDs(ctx context.Context, cohort string) ([]core.GeneID, error) {
	gene, _, _, err := labels(cohort)
	if err != nil {
		return nil, err
	}
	rows, err := s.run(ctx, "genes", fmt.Sprintf(`MATCH (n:%s) RETURN n.gene_id AS id ORDER BY id`, gene), nil)
	if err != nil {
		return nil, err
	}
	return stringColumn(rows, "id"), nil
}

// PatientIDs lists the distinct patients of a cohort.
func (s *Store) PatientIDs(ctx context.Context, cohort string) ([]string, error) {
	_, _, patient, err := labels(cohort)
	if err != nil {
		return nil, err
	}
	rows, err := s.run(ctx, "patients", fmt.Sprintf(`MATCH (p:%s) RETURN DISTINCT p.patient_id AS id ORDER BY id`, patient), nil)
	if err != nil {
		return nil, err
	}
	return stringColumn(rows, "id"), nil
}

// HasGene reports whether the cohort contains gene.
func (s *Store) HasGene(ctx context.Context, cohort string, gene core.GeneID) (bool, error) {
	geneLabel, _, _, err := labels(cohort)
	if err != nil {
		return false, err
	}
	rows, err := s.run(ctx, "center",
		fmt.Sprintf(`MATCH (center:%s {gene_id: $gene}) RETURN center.gene_id AS id`, geneLabel),
		map[string]any{"gene": gene})
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Sources returns the regulations pointing at gene.
func (s *Store) Sources(ctx context.Context, cohort string, gene core.GeneID) ([]Regulation, error) {
	geneLabel, regLabel, patLabel, err := labels(cohort)
	if err != nil {
		return nil, err
	}
	cypher := fmt.Sprintf(`MATCH (center:%[1]s {gene_id: $gene})
MATCH (source:%[1]s)-[:REGULATES]->(r:%[2]s)-[:REGULATED]->(center)
OPTIONAL MATCH (:%[3]s)-[d:DYSREGULATED]->(r)
RETURN source.gene_id AS source, center.gene_id AS target, r.regulation_id AS regulation_id,
       r.fraction AS fraction, coalesce(avg(d.value), 0.0) AS mean`, geneLabel, regLabel, patLabel)

	rows, err := s.run(ctx, "sources", cypher, map[string]any{"gene": gene})
	if err != nil {
		return nil, err
	}
	return regulations(rows), nil
}

// Targets returns the regulations leaving gene.
func (s *Store) Targets(ctx context.Context, cohort string, gene core.GeneID) ([]Regulation, error) {
	geneLabel, regLabel, patLabel, err := labels(cohort)
	if err != nil {
		return nil, err
	}
	cypher := fmt.Sprintf(`MATCH (center:%[1]s {gene_id: $gene})
MATCH (center)-[:REGULATES]->(r:%[2]s)-[:REGULATED]->(target:%[1]s)
OPTIONAL MATCH (:%[3]s)-[d:DYSREGULATED]->(r)
RETURN center.gene_id AS source, target.gene_id AS target, r.regulation_id AS regulation_id,
       r.fraction AS fraction, coalesce(avg(d.value), 0.0) AS mean`, geneLabel, regLabel, patLabel)

	rows, err := s.run(ctx, "targets", cypher, map[string]any{"gene": gene})
	if err != nil {
		return nil, err
	}
	return regulations(rows), nil
}

// Fractions returns the fraction of each regulation id present in the cohort.
func (s *Store) Fractions(ctx context.Context, cohort string, ids []string) (map[string]float64, error) {
	_, regLabel, _, err := labels(cohort)
	if err != nil {
		return nil, err
	}
	rows, err := s.run(ctx, "fractions",
		fmt.Sprintf(`MATCH (r:%s) WHERE r.regulation_id IN $ids RETURN r.regulation_id AS id, r.fraction AS fraction`, regLabel),
		map[string]any{"ids": ids})
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(rows))
	for _, row := range rows {
		out[toString(row["id"])] = toFloat(row["fraction"])
	}
	return out, nil
}

// Patients returns every patient dysregulating one regulation.
func (s *Store) Patients(ctx context.Context, cohort, regulationID string) ([]PatientValue, error) {
	_, regLabel, patLabel, err := labels(cohort)
	if err != nil {
		return nil, err
	}
	rows, err := s.run(ctx, "regulation_patients",
		fmt.Sprintf(`MATCH (p:%s)-[d:DYSREGULATED]->(:%s {regulation_id: $id})
RETURN p.patient_id AS patient_id, d.value AS value ORDER BY patient_id`, patLabel, regLabel),
		map[string]any{"id": regulationID})
	if err != nil {
		return nil, err
	}
	out := make([]PatientValue, 0, len(rows))
	for _, row := range rows {
		out = append(out, PatientValue{PatientID: toString(row["patient_id"]), Value: toFloat(row["value"])})
	}
	return out, nil
}

// Methylation returns methylation rows for genes.
func (s *Store) Methylation(ctx context.Context, cohort string, genes []core.GeneID) ([]MethylationRow, error) {
	geneLabel, _, patLabel, err := labels(cohort)
	if err != nil {
		return nil, err
	}
	rows, err := s.run(ctx, "methylation",
		fmt.Sprintf(`MATCH (g:%s) WHERE g.gene_id IN $genes
MATCH (p:%s)-[m:METHYLATED]->(g)
RETURN g.gene_id AS gene_id, p.patient_id AS patient_id, m.methylation AS methylation`, geneLabel, patLabel),
		map[string]any{"genes": genes})
	if err != nil {
		return nil, err
	}
	out := make([]MethylationRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, MethylationRow{
			GeneID:      toString(row["gene_id"]),
			PatientID:   toString(row["patient_id"]),
			Methylation: toFloat(row["methylation"]),
		})
	}
	return out, nil
}

// Dysregulation returns every patient value of the given regulations.
func (s *Store) Dysregulation(ctx context.Context, cohort string, ids []string) ([]DysregulationRow, error) {
	_, regLabel, patLabel, err := labels(cohort)
	if err != nil {
		return nil, err
	}
	rows, err := s.run(ctx, "dysregulation",
		fmt.Sprintf(`MATCH (r:%s) WHERE r.regulation_id IN $ids
MATCH (p:%s)-[d:DYSREGULATED]->(r)
RETURN r.regulation_id AS regulation_id, p.patient_id AS patient_id, d.value AS value`, regLabel, patLabel),
		map[string]any{"ids": ids})
	if err != nil {
		return nil, err
	}
	return dysregulationRows(rows), nil
}

// PatientDysregulation returns one patient's values of the given regulations.
// Patient ids are stored upper case.
func (s *Store) PatientDysregulation(ctx context.Context, cohort string, ids []string, patientID string) ([]DysregulationRow, error) {
	_, regLabel, patLabel, err := labels(cohort)
	if err != nil {
		return nil, err
	}
	rows, err := s.run(ctx, "patient_dysregulation",
		fmt.Sprintf(`MATCH (r:%s) WHERE r.regulation_id IN $ids
MATCH (p:%s) WHERE p.patient_id = $patient
MATCH (p)-[d:DYSREGULATED]->(r)
RETURN r.regulation_id AS regulation_id, p.patient_id AS patient_id, d.value AS value`, regLabel, patLabel),
		map[string]any{"ids": ids, "patient": strings.ToUpper(patientID)})
	if err != nil {
		return nil, err
	}
	return dysregulationRows(rows), nil
}

func regulations(rows []Row) []Regulation {
	out := make([]Regulation, 0, len(rows))
	for _, row := range rows {
		key := core.EdgeKey{Regulator: toString(row["source"]), Target: toString(row["target"])}
		id := toString(row["regulation_id"])
		if id == "" {
			id = key.ID()
		}
		out = append(out, Regulation{
			ID:       id,
			Key:      key,
			Fraction: toFloat(row["fraction"]),
			Mean:     toFloat(row["mean"]),
		})
	}
	return out
}

func dysregulationRows(rows []Row) []DysregulationRow {
	out := make([]DysregulationRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, DysregulationRow{
			RegulationID: toString(row["regulation_id"]),
			PatientID:    toString(row["patient_id"]),
			Value:        toFloat(row["value"]),
		})
	}
	return out
}

func stringColumn(rows []Row, key string) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if s := toString(row[key]); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int64:
		return float64(t)
	case int:
		return float64(t)
	default:
		return 0
	}
}
