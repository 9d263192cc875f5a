package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driven"
)

// historyStore implements driven.HistoryStore.
type historyStore struct {
	store *Store
}

var _ driven.HistoryStore = (*historyStore)(nil)

// Save stores an entry. Saving the same ID twice overwrites it.
func (s *historyStore) Save(ctx context.Context, entry domain.HistoryEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("%w: history entry has no id", domain.ErrInvalidInput)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO query_history (id, kind, query, mode, answer, citation_count, total_matches, phase, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			answer = excluded.answer,
			citation_count = excluded.citation_count,
			total_matches = excluded.total_matches,
			phase = excluded.phase
	`, entry.ID, string(entry.Kind), entry.Query, string(entry.Mode), entry.Answer,
		entry.CitationCount, entry.TotalMatches, entry.Phase, entry.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving history entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *historyStore) Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, kind, query, mode, answer, citation_count, total_matches, phase, created_at
		FROM query_history
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.HistoryEntry, 0, limit)
	for rows.Next() {
		var e domain.HistoryEntry
		var kind, mode string
		if err := rows.Scan(&e.ID, &kind, &e.Query, &mode, &e.Answer,
			&e.CitationCount, &e.TotalMatches, &e.Phase, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		e.Kind = domain.QueryKind(kind)
		e.Mode = domain.SearchMode(mode)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return entries, nil
}

// Clear deletes every entry.
func (s *historyStore) Clear(ctx context.Context) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM query_history"); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}
