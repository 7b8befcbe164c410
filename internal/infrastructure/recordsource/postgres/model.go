package postgres

import (
	"time"

	"github.com/lib/pq"
)

type gameRecordTableModel struct {
	ID        int64          `db:"id"`
	PublicID  string         `db:"public_id"`
	Decks     int            `db:"decks"`
	Attackers pq.StringArray `db:"attackers"`
	Defenders pq.StringArray `db:"defenders"`
	Points    int            `db:"points"`
	Result    string         `db:"result"`
	PlayedAt  *time.Time     `db:"played_at"`
	CreatedAt time.Time      `db:"created_at"`
	DeletedAt *time.Time     `db:"deleted_at"`
}
