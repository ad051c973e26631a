package repository

import (
	"context"
	"fmt"

	"github.com/alumnet/alumnet/cmd/alumnet/models"
	"github.com/alumnet/alumnet/common/db"
)

// RosterRepository reads the authoritative alumni roster. Read-only: imports
// happen through admin tooling outside this service.
type RosterRepository struct {
	db *db.DB
}

// NewRosterRepository creates a new roster repository
func NewRosterRepository(database *db.DB) *RosterRepository {
	return &RosterRepository{db: database}
}

// LoadAll fetches the full roster in import order. The ordering matters: the
// matcher uses roster position as its stable tie-break, so identical inputs
// must always see records in the same sequence.
func (r *RosterRepository) LoadAll(ctx context.Context) ([]models.RosterRecord, error) {
	query := `
		SELECT roll_no, name, batch, branch
		FROM alumni_roster
		ORDER BY id ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	defer rows.Close()

	var records []models.RosterRecord
	for rows.Next() {
		var record models.RosterRecord
		if err := rows.Scan(&record.RollNo, &record.Name, &record.Batch, &record.Branch); err != nil {
			return nil, fmt.Errorf("failed to scan roster record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roster: %w", err)
	}

	return records, nil
}
