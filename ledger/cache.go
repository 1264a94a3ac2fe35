package ledger

import (
	"context"
	"fmt"
	"time"
)

// SaveAnalysis inserts a cached score that stays readable until expires_at.
// Rows are never updated in place; a fresh analysis is a fresh row.
func (s *Store) SaveAnalysis(ctx context.Context, a Analysis) error {
	if a.Symbol == "" {
		return Validationf("symbol", "must not be empty")
	}
	switch a.Type {
	case AnalysisTechnical, AnalysisSentiment, AnalysisCombined:
	default:
		return Validationf("analysis_type", "%q is not TECHNICAL, SENTIMENT or COMBINED", a.Type)
	}
	if !a.ExpiresAt.After(a.CreatedAt) {
		return Validationf("expires_at", "must be after created_at")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_cache (symbol, analysis_type, score, label, details_json, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.Symbol, a.Type, a.Score, a.Label, a.DetailsJSON, a.CreatedAt, a.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// RecentAnalyses returns up to 5 unexpired rows for the symbol, newest first.
// Empty typ matches all kinds. Expired rows are excluded but never deleted
// here; see PruneExpiredAnalyses.
func (s *Store) RecentAnalyses(ctx context.Context, symbol string, typ AnalysisType, now time.Time) ([]Analysis, error) {
	query := `SELECT * FROM analysis_cache WHERE symbol = ? AND expires_at > ?`
	args := []any{symbol, now}

	if typ != "" {
		query += ` AND analysis_type = ?`
		args = append(args, typ)
	}
	query += ` ORDER BY created_at DESC LIMIT 5`

	var out []Analysis
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	return out, nil
}

// PruneExpiredAnalyses deletes rows whose TTL has lapsed and reports how many
// went. Reads already exclude them; this only caps storage growth on
// long-running deployments.
func (s *Store) PruneExpiredAnalyses(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM analysis_cache WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, fmt.Errorf("prune analyses: %w", err)
	}
	return res.RowsAffected()
}
