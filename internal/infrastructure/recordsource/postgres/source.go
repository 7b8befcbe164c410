package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/tractorstats/tractor-stats/internal/domain/gamerecord"
)

const listRecordsQuery = `
SELECT id, public_id, decks, attackers, defenders, points, result, played_at, created_at, deleted_at
FROM game_records
WHERE deleted_at IS NULL
ORDER BY played_at NULLS LAST, id`

// Source reads game records from the game_records table. Rows with an
// unparseable result column are returned as records that fail validation so
// the aggregator counts them as skipped.
type Source struct {
	db *sqlx.DB
}

func NewSource(db *sqlx.DB) *Source {
	return &Source{db: db}
}

func (s *Source) List(ctx context.Context) ([]gamerecord.Record, error) {
	var rows []gameRecordTableModel
	if err := s.db.SelectContext(ctx, &rows, listRecordsQuery); err != nil {
		return nil, fmt.Errorf("select game records: %w", err)
	}

	out := make([]gamerecord.Record, 0, len(rows))
	for _, row := range rows {
		record := gamerecord.Record{
			ID:        row.PublicID,
			Decks:     row.Decks,
			Attackers: append([]string(nil), row.Attackers...),
			Defenders: append([]string(nil), row.Defenders...),
			Points:    row.Points,
		}
		if record.ID == "" {
			record.ID = fmt.Sprintf("db-%d", row.ID)
		}
		if result, err := gamerecord.ParseResult(row.Result); err == nil {
			record.Result = result
		}
		out = append(out, record)
	}

	return out, nil
}
