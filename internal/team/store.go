package team

import (
	"context"
	"fmt"

	"github.com/fortuna/borealis/internal/store"
)

// NewFromStore builds a directory from the teams table. The result is a
// snapshot; rebuild after a roster sync to pick up new rows.
func NewFromStore(ctx context.Context, db *store.Database) (*StaticDirectory, error) {
	query := `
		SELECT abbreviation, nst_code, full_name
		FROM teams
		WHERE is_active = true
		ORDER BY abbreviation
	`

	rows, err := db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying teams: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Tricode, &e.NSTCode, &e.FullName); err != nil {
			return nil, fmt.Errorf("scanning team: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("teams table is empty")
	}

	return NewStaticDirectory(entries), nil
}
