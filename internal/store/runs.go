package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"topeology/internal/compare"
	"topeology/internal/services"
)

// ErrRunNotFound is returned when a run ID has no stored run.
var ErrRunNotFound = errors.New("run not found")

// Run describes one stored comparison.
type Run struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	InputPath      string    `json:"input_path,omitempty"`
	Backend        string    `json:"backend"`
	Mode           string    `json:"mode"`
	PositiveRatio  float64   `json:"positive_ratio"`
	EpitopeLengths []int     `json:"epitope_lengths"`
	CandidateCount int       `json:"candidate_count"`
	ReferenceCount int       `json:"reference_count"`
	RecordCount    int       `json:"record_count"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// SaveRun stores run and its records. Empty ID and CreatedAt fields are
// filled in; the stored run is returned.
func (s *Store) SaveRun(ctx context.Context, run Run, records []compare.Record) (Run, error) {
	if run.ID == "" {
		run.ID = NewRunID()
	} else if _, err := uuid.Parse(run.ID); err != nil {
		return Run{}, services.Wrap(services.ErrConfiguration, "store", "save run", fmt.Sprintf("invalid run id %q", run.ID), err)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.CreatedAt = run.CreatedAt.UTC()
	run.RecordCount = len(records)
	lengths, err := json.Marshal(nonNil(run.EpitopeLengths))
	if err != nil {
		return Run{}, fmt.Errorf("encode epitope lengths: %w", err)
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO runs (
			id, created_at, input_path, backend, mode, positive_ratio,
			epitope_lengths, candidate_count, reference_count, record_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, formatTime(run.CreatedAt), run.InputPath, run.Backend, run.Mode, run.PositiveRatio,
			string(lengths), run.CandidateCount, run.ReferenceCount, run.RecordCount,
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_records (
			run_id, seq, sample, epitope, epitope_wt, iedb_epitope, score, score_wt, hla, organism
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare record insert: %w", err)
		}
		defer stmt.Close()

		for i, r := range records {
			var scoreWT sql.NullFloat64
			if r.ScoreWT != nil {
				scoreWT = sql.NullFloat64{Float64: *r.ScoreWT, Valid: true}
			}
			if _, err := stmt.ExecContext(ctx,
				run.ID, i, r.SampleID, r.Epitope, r.Wildtype, r.IEDBEpitope, r.Score, scoreWT, r.HLA, r.Organism,
			); err != nil {
				return fmt.Errorf("insert record %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

const runColumns = `id, created_at, input_path, backend, mode, positive_ratio,
	epitope_lengths, candidate_count, reference_count, record_count`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run       Run
		createdAt string
		lengths   string
	)
	if err := row.Scan(&run.ID, &createdAt, &run.InputPath, &run.Backend, &run.Mode, &run.PositiveRatio,
		&lengths, &run.CandidateCount, &run.ReferenceCount, &run.RecordCount); err != nil {
		return Run{}, err
	}
	run.CreatedAt = parseTime(createdAt)
	if err := json.Unmarshal([]byte(lengths), &run.EpitopeLengths); err != nil {
		return Run{}, fmt.Errorf("decode epitope lengths for run %s: %w", run.ID, err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY created_at DESC, id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns the run with id, matching a unique prefix when id is
// shorter than a full UUID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Run{}, fmt.Errorf("%w: empty id", ErrRunNotFound)
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\\' ORDER BY id LIMIT 2",
		id, escapeLike(id)+"%",
	)
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		if run.ID == id {
			return run, nil
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	switch len(matches) {
	case 0:
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return Run{}, fmt.Errorf("%w: prefix %s is ambiguous", ErrRunNotFound, id)
	}
}

// RunRecords returns the records of run id in their original order.
func (s *Store) RunRecords(ctx context.Context, id string) ([]compare.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sample, epitope, epitope_wt, iedb_epitope, score, score_wt, hla, organism
		FROM run_records WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("run records: %w", err)
	}
	defer rows.Close()

	records := []compare.Record{}
	for rows.Next() {
		var (
			r       compare.Record
			scoreWT sql.NullFloat64
		)
		if err := rows.Scan(&r.SampleID, &r.Epitope, &r.Wildtype, &r.IEDBEpitope, &r.Score, &scoreWT, &r.HLA, &r.Organism); err != nil {
			return nil, err
		}
		if scoreWT.Valid {
			v := scoreWT.Float64
			r.ScoreWT = &v
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// DeleteRun removes a run and its records.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	return s.execWithRetry(ctx, "DELETE FROM runs WHERE id = ?", id)
}

func escapeLike(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(value)
}

func nonNil(lengths []int) []int {
	if lengths == nil {
		return []int{}
	}
	return lengths
}
