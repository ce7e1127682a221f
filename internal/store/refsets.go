package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"topeology/internal/fileutil"
	"topeology/internal/iedb"
)

// ReferenceSetKey digests the curation options and the export stamp. Filter
// order is significant; length order is not.
func ReferenceSetKey(opts iedb.CurateOptions, source fileutil.Stamp) string {
	h := sha256.New()
	fmt.Fprintf(h, "source=%s\n", source.String())
	fmt.Fprintf(h, "ratio=%v\nhla=%t\norganism=%t\n", opts.PositiveRatio, opts.IncludeHLA, opts.IncludeOrganism)
	if opts.AllowedLengths == nil {
		fmt.Fprintf(h, "lengths=*\n")
	} else {
		lengths := slices.Clone(opts.AllowedLengths)
		slices.Sort(lengths)
		lengths = slices.Compact(lengths)
		parts := make([]string, len(lengths))
		for i, l := range lengths {
			parts[i] = fmt.Sprint(l)
		}
		fmt.Fprintf(h, "lengths=%s\n", strings.Join(parts, ","))
	}
	for _, f := range opts.Filters {
		fmt.Fprintf(h, "filter=%q|%q|%t\n", f.Column, f.On, f.CaseSensitive)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SaveReferenceSet stores epitopes under key, replacing any previous entry.
func (s *Store) SaveReferenceSet(ctx context.Context, key, sourcePath string, epitopes []iedb.ReferenceEpitope) error {
	if epitopes == nil {
		epitopes = []iedb.ReferenceEpitope{}
	}
	payload, err := json.Marshal(epitopes)
	if err != nil {
		return fmt.Errorf("encode reference set: %w", err)
	}
	return s.execWithRetry(ctx, `INSERT INTO reference_sets (cache_key, created_at, source_path, epitope_count, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			created_at = excluded.created_at,
			source_path = excluded.source_path,
			epitope_count = excluded.epitope_count,
			payload = excluded.payload`,
		key, formatTime(time.Now()), sourcePath, len(epitopes), string(payload),
	)
}

// LoadReferenceSet returns the cached epitopes for key. The boolean is false
// on a cache miss.
func (s *Store) LoadReferenceSet(ctx context.Context, key string) ([]iedb.ReferenceEpitope, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM reference_sets WHERE cache_key = ?", key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load reference set: %w", err)
	}
	var epitopes []iedb.ReferenceEpitope
	if err := json.Unmarshal([]byte(payload), &epitopes); err != nil {
		return nil, false, fmt.Errorf("decode reference set: %w", err)
	}
	return epitopes, true, nil
}

// PruneReferenceSets removes cache entries older than cutoff and reports how
// many were removed.
func (s *Store) PruneReferenceSets(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM reference_sets WHERE created_at < ?", formatTime(cutoff))
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}
