// Package feedback implements the independent feedback-collection API and
// its rating analytics. It shares no state with the ingestion or bootstrap
// pipelines beyond the collection set.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oscehub/oscehub/internal/model"
	"github.com/oscehub/oscehub/internal/store"
)

// Rating bounds for submitted feedback.
const (
	MinRating = 1
	MaxRating = 5
)

// ErrInvalidRating is returned when a submission's rating is out of range.
var ErrInvalidRating = fmt.Errorf("feedback: rating must be between %d and %d", MinRating, MaxRating)

// Service collects feedback entries and computes rating analytics.
type Service struct {
	feedback store.Collection[*model.Feedback]
	stations store.Collection[*model.Station]
}

// NewService creates a Service.
func NewService(feedback store.Collection[*model.Feedback], stations store.Collection[*model.Station]) *Service {
	return &Service{feedback: feedback, stations: stations}
}

// Submission is one incoming feedback entry.
type Submission struct {
	StationID string `json:"stationId,omitempty"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
}

// Submit validates and stores one feedback entry. A non-empty StationID
// must reference an existing station; store.ErrNotFound propagates when it
// does not.
func (s *Service) Submit(ctx context.Context, sub Submission) (*model.Feedback, error) {
	if sub.Rating < MinRating || sub.Rating > MaxRating {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidRating, sub.Rating)
	}

	if sub.StationID != "" {
		if _, err := s.stations.FindByID(ctx, sub.StationID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("feedback: station %q: %w", sub.StationID, err)
			}
			return nil, err
		}
	}

	entry := &model.Feedback{
		StationID: sub.StationID,
		Rating:    sub.Rating,
		Comment:   sub.Comment,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.feedback.Insert(ctx, entry); err != nil {
		return nil, fmt.Errorf("feedback: store entry: %w", err)
	}
	return entry, nil
}

// List returns feedback entries, optionally filtered to one station.
func (s *Service) List(ctx context.Context, stationID string) ([]*model.Feedback, error) {
	var f store.Filter
	if stationID != "" {
		f = store.Filter{"stationId": stationID}
	}
	return s.feedback.FindAll(ctx, f)
}

// Analytics summarizes ratings: count, average, min, max, and a per-rating
// distribution. Min and Max are zero when no entries match.
type Analytics struct {
	Count        int            `json:"count"`
	Average      float64        `json:"average"`
	Min          int            `json:"min"`
	Max          int            `json:"max"`
	Distribution map[string]int `json:"distribution"`
}

// Analyze computes rating analytics, optionally scoped to one station.
func (s *Service) Analyze(ctx context.Context, stationID string) (*Analytics, error) {
	entries, err := s.List(ctx, stationID)
	if err != nil {
		return nil, fmt.Errorf("feedback: list entries: %w", err)
	}

	out := &Analytics{Distribution: make(map[string]int, MaxRating)}
	for r := MinRating; r <= MaxRating; r++ {
		out.Distribution[fmt.Sprint(r)] = 0
	}

	var sum int
	for _, e := range entries {
		out.Count++
		sum += e.Rating
		if out.Min == 0 || e.Rating < out.Min {
			out.Min = e.Rating
		}
		if e.Rating > out.Max {
			out.Max = e.Rating
		}
		out.Distribution[fmt.Sprint(e.Rating)]++
	}
	if out.Count > 0 {
		out.Average = float64(sum) / float64(out.Count)
	}
	return out, nil
}
