package store

import (
	"context"
	"errors"
	"testing"

	"github.com/oscehub/oscehub/internal/model"
)

func newExaminerCollection() *Memory[*model.Participant] {
	return NewMemory[*model.Participant]("naturalKey")
}

func TestMemory_InsertAssignsID(t *testing.T) {
	col := newExaminerCollection()
	ctx := context.Background()

	id, err := col.Insert(ctx, &model.Participant{Kind: model.KindExaminer, NaturalKey: "E1", Name: "Ann"})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if id == "" {
		t.Fatal("Insert() returned empty ID")
	}

	got, err := col.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got.NaturalKey != "E1" || got.Name != "Ann" {
		t.Errorf("FindByID() = %+v, want E1/Ann", got)
	}
}

func TestMemory_UniqueKeyEnforced(t *testing.T) {
	col := newExaminerCollection()
	ctx := context.Background()

	if _, err := col.Insert(ctx, &model.Participant{NaturalKey: "E1", Name: "Ann"}); err != nil {
		t.Fatalf("first Insert() error = %v", err)
	}

	_, err := col.Insert(ctx, &model.Participant{NaturalKey: "E1", Name: "Other"})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("second Insert() error = %v, want ErrDuplicateKey", err)
	}
}

func TestMemory_FindOne(t *testing.T) {
	col := newExaminerCollection()
	ctx := context.Background()

	col.Insert(ctx, &model.Participant{NaturalKey: "E1", Name: "Ann"})
	col.Insert(ctx, &model.Participant{NaturalKey: "E2", Name: "Bob"})

	got, err := col.FindOne(ctx, Filter{"naturalKey": "E2"})
	if err != nil {
		t.Fatalf("FindOne() error = %v", err)
	}
	if got.Name != "Bob" {
		t.Errorf("FindOne() Name = %q, want %q", got.Name, "Bob")
	}

	if _, err := col.FindOne(ctx, Filter{"naturalKey": "missing"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindOne(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMemory_UpdateByID(t *testing.T) {
	col := newExaminerCollection()
	ctx := context.Background()

	id, _ := col.Insert(ctx, &model.Participant{NaturalKey: "E1", Name: "Ann"})

	updated, err := col.UpdateByID(ctx, id, &model.Participant{NaturalKey: "E1", Name: "Ann B"})
	if err != nil {
		t.Fatalf("UpdateByID() error = %v", err)
	}
	if updated.ID != id {
		t.Errorf("UpdateByID() changed ID: %q -> %q", id, updated.ID)
	}
	if updated.Name != "Ann B" {
		t.Errorf("UpdateByID() Name = %q, want %q", updated.Name, "Ann B")
	}

	if _, err := col.UpdateByID(ctx, "nonexistent", &model.Participant{NaturalKey: "X"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateByID(nonexistent) error = %v, want ErrNotFound", err)
	}
}

func TestMemory_UpdateByID_DuplicateKey(t *testing.T) {
	col := newExaminerCollection()
	ctx := context.Background()

	col.Insert(ctx, &model.Participant{NaturalKey: "E1", Name: "Ann"})
	id2, _ := col.Insert(ctx, &model.Participant{NaturalKey: "E2", Name: "Bob"})

	// Moving E2 onto E1's natural key must be rejected.
	_, err := col.UpdateByID(ctx, id2, &model.Participant{NaturalKey: "E1", Name: "Bob"})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("UpdateByID() error = %v, want ErrDuplicateKey", err)
	}
}

func TestMemory_FindAllPreservesInsertionOrder(t *testing.T) {
	col := NewMemory[*model.Track]("")
	ctx := context.Background()

	names := []string{"alpha", "bravo", "charlie", "delta"}
	for _, n := range names {
		col.Insert(ctx, &model.Track{Name: n, AdministrationID: "a1"})
	}

	got, err := col.FindAll(ctx, nil)
	if err != nil {
		t.Fatalf("FindAll() error = %v", err)
	}
	if len(got) != len(names) {
		t.Fatalf("FindAll() returned %d docs, want %d", len(got), len(names))
	}
	for i, n := range names {
		if got[i].Name != n {
			t.Errorf("FindAll()[%d].Name = %q, want %q", i, got[i].Name, n)
		}
	}
}

func TestMemory_FindAllFilter(t *testing.T) {
	col := NewMemory[*model.Station]("")
	ctx := context.Background()

	col.Insert(ctx, &model.Station{Name: "s1", TrackID: "t1"})
	col.Insert(ctx, &model.Station{Name: "s2", TrackID: "t2"})
	col.Insert(ctx, &model.Station{Name: "s3", TrackID: "t1"})

	got, err := col.FindAll(ctx, Filter{"trackId": "t1"})
	if err != nil {
		t.Fatalf("FindAll() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("FindAll(trackId=t1) returned %d docs, want 2", len(got))
	}
}

func TestMemory_DeleteMany(t *testing.T) {
	col := NewMemory[*model.Station]("")
	ctx := context.Background()

	col.Insert(ctx, &model.Station{Name: "s1", TrackID: "t1"})
	col.Insert(ctx, &model.Station{Name: "s2", TrackID: "t2"})
	col.Insert(ctx, &model.Station{Name: "s3", TrackID: "t1"})

	n, err := col.DeleteMany(ctx, Filter{"trackId": "t1"})
	if err != nil {
		t.Fatalf("DeleteMany() error = %v", err)
	}
	if n != 2 {
		t.Errorf("DeleteMany() = %d, want 2", n)
	}

	count, _ := col.Count(ctx)
	if count != 1 {
		t.Errorf("Count() after delete = %d, want 1", count)
	}

	// nil filter deletes everything
	n, err = col.DeleteMany(ctx, nil)
	if err != nil {
		t.Fatalf("DeleteMany(nil) error = %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteMany(nil) = %d, want 1", n)
	}
}

func TestMemory_CloneIsolation(t *testing.T) {
	col := NewMemory[*model.Administration]("")
	ctx := context.Background()

	admin := &model.Administration{Name: "Spring", TrackIDs: []string{"t1"}}
	id, _ := col.Insert(ctx, admin)

	// Mutating the caller's copy must not affect the stored document.
	admin.Name = "mutated"
	admin.TrackIDs[0] = "mutated"

	got, err := col.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got.Name != "Spring" || got.TrackIDs[0] != "t1" {
		t.Errorf("stored document was mutated through caller reference: %+v", got)
	}
}

func TestMemory_FilterOnNumericField(t *testing.T) {
	col := NewMemory[*model.Feedback]("")
	ctx := context.Background()

	col.Insert(ctx, &model.Feedback{Rating: 5, StationID: "s1"})
	col.Insert(ctx, &model.Feedback{Rating: 3, StationID: "s1"})

	got, err := col.FindAll(ctx, Filter{"rating": "5"})
	if err != nil {
		t.Fatalf("FindAll() error = %v", err)
	}
	if len(got) != 1 || got[0].Rating != 5 {
		t.Errorf("FindAll(rating=5) = %+v, want one entry with rating 5", got)
	}
}
