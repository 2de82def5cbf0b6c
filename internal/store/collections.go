package store

import (
	"fmt"

	"github.com/oscehub/oscehub/internal/model"
)

// Collections bundles one collection per entity kind. Both pipelines and
// the web layer take this bundle explicitly; nothing in the codebase holds
// a global storage handle.
type Collections struct {
	Examiners       Collection[*model.Participant]
	Examinees       Collection[*model.Participant]
	Clients         Collection[*model.Participant]
	Administrations Collection[*model.Administration]
	Tracks          Collection[*model.Track]
	Stations        Collection[*model.Station]
	Feedback        Collection[*model.Feedback]
}

// Participants returns the collection for the given participant kind.
func (c *Collections) Participants(kind model.Kind) (Collection[*model.Participant], error) {
	switch kind {
	case model.KindExaminer:
		return c.Examiners, nil
	case model.KindExaminee:
		return c.Examinees, nil
	case model.KindClient:
		return c.Clients, nil
	}
	return nil, fmt.Errorf("store: unknown participant kind %q", kind)
}

// NewMemoryCollections builds a full in-memory collection set. Used by
// tests and local development.
func NewMemoryCollections() *Collections {
	return &Collections{
		Examiners:       NewMemory[*model.Participant]("naturalKey"),
		Examinees:       NewMemory[*model.Participant]("naturalKey"),
		Clients:         NewMemory[*model.Participant]("naturalKey"),
		Administrations: NewMemory[*model.Administration](""),
		Tracks:          NewMemory[*model.Track](""),
		Stations:        NewMemory[*model.Station](""),
		Feedback:        NewMemory[*model.Feedback](""),
	}
}

// NewPostgresCollections builds the production collection set over the
// tables created by EnsureSchema.
func NewPostgresCollections(db DBTX) *Collections {
	return &Collections{
		Examiners:       NewPostgres[*model.Participant](db, TableExaminers),
		Examinees:       NewPostgres[*model.Participant](db, TableExaminees),
		Clients:         NewPostgres[*model.Participant](db, TableClients),
		Administrations: NewPostgres[*model.Administration](db, TableAdministrations),
		Tracks:          NewPostgres[*model.Track](db, TableTracks),
		Stations:        NewPostgres[*model.Station](db, TableStations),
		Feedback:        NewPostgres[*model.Feedback](db, TableFeedback),
	}
}
