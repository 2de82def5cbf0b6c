package store

import (
	"context"
	"fmt"
)

// Table names, one per collection.
const (
	TableExaminers       = "participants_examiner"
	TableExaminees       = "participants_examinee"
	TableClients         = "participants_client"
	TableAdministrations = "administrations"
	TableTracks          = "tracks"
	TableStations        = "stations"
	TableFeedback        = "feedback"
)

// participantTables lists the per-kind participant tables; each gets a
// unique index on the naturalKey field of the document.
var participantTables = []string{TableExaminers, TableExaminees, TableClients}

// plainTables have no unique constraint beyond the primary key.
var plainTables = []string{TableAdministrations, TableTracks, TableStations, TableFeedback}

// EnsureSchema creates the collection tables and unique indexes if they do
// not already exist. It is safe to run on every startup.
func EnsureSchema(ctx context.Context, db DBTX) error {
	for _, table := range append(append([]string{}, participantTables...), plainTables...) {
		createTable := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				seq BIGINT GENERATED ALWAYS AS IDENTITY,
				id  UUID PRIMARY KEY,
				doc JSONB NOT NULL
			)`, table)
		if _, err := db.Exec(ctx, createTable); err != nil {
			return fmt.Errorf("store: create table %s: %w", table, err)
		}
	}

	for _, table := range participantTables {
		createIndex := fmt.Sprintf(
			`CREATE UNIQUE INDEX IF NOT EXISTS %s_natural_key ON %s ((doc->>'naturalKey'))`,
			table, table,
		)
		if _, err := db.Exec(ctx, createIndex); err != nil {
			return fmt.Errorf("store: create index on %s: %w", table, err)
		}
	}

	return nil
}
