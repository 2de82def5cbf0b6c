// Package model defines the entity types shared by the ingestion,
// bootstrap, feedback, and web layers. This package has no dependencies on
// storage or transport and can be imported from anywhere.
package model

import "time"

// Kind identifies a participant population. Each kind is stored in its own
// collection with its own natural-key uniqueness constraint.
type Kind string

const (
	KindExaminer Kind = "examiner"
	KindExaminee Kind = "examinee"
	KindClient   Kind = "client"
)

// Kinds lists all participant kinds in a stable order.
func Kinds() []Kind {
	return []Kind{KindExaminer, KindExaminee, KindClient}
}

// Valid reports whether k is a known participant kind.
func (k Kind) Valid() bool {
	switch k {
	case KindExaminer, KindExaminee, KindClient:
		return true
	}
	return false
}

// Participant is a member of one of the three participant populations.
// NaturalKey is the caller-supplied identifier (e.g. an examiner ID) used
// for reconciliation; ID is the storage-assigned identity and never changes
// once the record exists.
type Participant struct {
	ID         string `json:"id"`
	Kind       Kind   `json:"kind"`
	NaturalKey string `json:"naturalKey"`
	Name       string `json:"name"`
}

// DocumentID implements store.Document.
func (p *Participant) DocumentID() string { return p.ID }

// SetDocumentID implements store.Document.
func (p *Participant) SetDocumentID(id string) { p.ID = id }

// Administration is the top level of the test-event hierarchy. It owns its
// tracks by ID reference, in creation order.
type Administration struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	TrackIDs []string `json:"trackIds"`
}

func (a *Administration) DocumentID() string      { return a.ID }
func (a *Administration) SetDocumentID(id string) { a.ID = id }

// Track belongs to exactly one administration for its lifetime.
type Track struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	AdministrationID string `json:"administrationId"`
}

func (t *Track) DocumentID() string      { return t.ID }
func (t *Track) SetDocumentID(id string) { t.ID = id }

// Station belongs to exactly one track.
type Station struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	TrackID string `json:"trackId"`
}

func (s *Station) DocumentID() string      { return s.ID }
func (s *Station) SetDocumentID(id string) { s.ID = id }

// Feedback is one submitted feedback entry, optionally tied to a station.
type Feedback struct {
	ID        string    `json:"id"`
	StationID string    `json:"stationId,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (f *Feedback) DocumentID() string      { return f.ID }
func (f *Feedback) SetDocumentID(id string) { f.ID = id }
