package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/oscehub/oscehub/internal/model"
	"github.com/oscehub/oscehub/internal/store"
)

func csvSource(body string) Source {
	return Source{
		Reader:      strings.NewReader(body),
		ContentType: "text/csv",
		Filename:    "roster.csv",
	}
}

func TestRun_RejectsNonCSVMediaType(t *testing.T) {
	col := store.NewMemory[*model.Participant]("naturalKey")
	p := New(model.KindExaminer, col)

	src := Source{
		Reader:      strings.NewReader("ExaminerID,Name\nE1,Ann\n"),
		ContentType: "text/plain",
		Filename:    "roster.txt",
	}

	_, err := p.Run(context.Background(), src)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("Run() error = %v, want ErrInvalidFormat", err)
	}

	// Nothing may have been processed.
	if n, _ := col.Count(context.Background()); n != 0 {
		t.Errorf("Count() = %d, want 0 after rejected upload", n)
	}
}

func TestRun_MediaTypes(t *testing.T) {
	tests := []struct {
		contentType string
		wantOK      bool
	}{
		{"text/csv", true},
		{"text/csv; charset=utf-8", true},
		{"application/csv", true},
		{"application/vnd.example+csv", true},
		{"text/plain", false},
		{"application/json", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			if got := isCSVMediaType(tt.contentType); got != tt.wantOK {
				t.Errorf("isCSVMediaType(%q) = %v, want %v", tt.contentType, got, tt.wantOK)
			}
		})
	}
}

func TestRun_DuplicateKeyWithinFileUpdatesInOrder(t *testing.T) {
	col := store.NewMemory[*model.Participant]("naturalKey")
	p := New(model.KindExaminer, col)
	ctx := context.Background()

	report, err := p.Run(ctx, csvSource("ExaminerID,Name\nE1,Ann\nE1,Ann B\nE2,Bob\n"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.SuccessCount != 3 || report.FailureCount != 0 {
		t.Fatalf("report = %d successes / %d failures, want 3/0", report.SuccessCount, report.FailureCount)
	}
	if report.TotalProcessed != 3 {
		t.Errorf("TotalProcessed = %d, want 3", report.TotalProcessed)
	}

	wantActions := []string{model.ActionInserted, model.ActionUpdated, model.ActionInserted}
	for i, want := range wantActions {
		if report.Successes[i].Action != want {
			t.Errorf("Successes[%d].Action = %q, want %q", i, report.Successes[i].Action, want)
		}
	}

	// Second occurrence of E1 must have won.
	e1, err := col.FindOne(ctx, store.Filter{"naturalKey": "E1"})
	if err != nil {
		t.Fatalf("FindOne(E1) error = %v", err)
	}
	if e1.Name != "Ann B" {
		t.Errorf("E1 name = %q, want %q", e1.Name, "Ann B")
	}

	if n, _ := col.Count(ctx); n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}

func TestRun_Idempotence(t *testing.T) {
	col := store.NewMemory[*model.Participant]("naturalKey")
	p := New(model.KindExaminee, col)
	ctx := context.Background()

	const body = "ExamineeID,Name\nS1,Kim\nS2,Lee\nS3,Park\n"

	first, err := p.Run(ctx, csvSource(body))
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	second, err := p.Run(ctx, csvSource(body))
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if first.SuccessCount != second.SuccessCount {
		t.Errorf("success counts differ between runs: %d vs %d", first.SuccessCount, second.SuccessCount)
	}
	for _, row := range first.Successes {
		if row.Action != model.ActionInserted {
			t.Errorf("first run action = %q, want inserted", row.Action)
		}
	}
	for _, row := range second.Successes {
		if row.Action != model.ActionUpdated {
			t.Errorf("second run action = %q, want updated", row.Action)
		}
	}

	if n, _ := col.Count(ctx); n != 3 {
		t.Errorf("Count() after two runs = %d, want 3", n)
	}
}

func TestRun_EmptyNaturalKeyFailsRow(t *testing.T) {
	col := store.NewMemory[*model.Participant]("naturalKey")
	p := New(model.KindClient, col)

	report, err := p.Run(context.Background(), csvSource("ClientID,Name\nC1,Pat\n,NoKey\nC2,Sam\n"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.SuccessCount != 2 || report.FailureCount != 1 {
		t.Fatalf("report = %d/%d, want 2 successes and 1 failure", report.SuccessCount, report.FailureCount)
	}
	if !strings.Contains(report.Failures[0].Reason, "missing natural key") {
		t.Errorf("failure reason = %q, want missing natural key", report.Failures[0].Reason)
	}
	// Failing row must not abort the rows after it.
	if report.Successes[1].NaturalKey != "C2" {
		t.Errorf("Successes[1].NaturalKey = %q, want C2", report.Successes[1].NaturalKey)
	}
}

func TestRun_MissingRecognizedColumnFailsRows(t *testing.T) {
	col := store.NewMemory[*model.Participant]("naturalKey")
	p := New(model.KindExaminer, col)

	// Header lacks ExaminerID entirely; every row yields an empty key.
	report, err := p.Run(context.Background(), csvSource("Name\nAnn\nBob\n"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.SuccessCount != 0 || report.FailureCount != 2 {
		t.Fatalf("report = %d/%d, want 0 successes and 2 failures", report.SuccessCount, report.FailureCount)
	}
}

func TestRun_SkipsEmptyLines(t *testing.T) {
	col := store.NewMemory[*model.Participant]("naturalKey")
	p := New(model.KindExaminer, col)

	report, err := p.Run(context.Background(), csvSource("ExaminerID,Name\nE1,Ann\n\n\nE2,Bob\n"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.TotalProcessed != 2 {
		t.Errorf("TotalProcessed = %d, want 2 (empty lines must not count)", report.TotalProcessed)
	}
	if report.FailureCount != 0 {
		t.Errorf("FailureCount = %d, want 0", report.FailureCount)
	}
}

func TestRun_HeaderMatchingIsCaseInsensitive(t *testing.T) {
	col := store.NewMemory[*model.Participant]("naturalKey")
	p := New(model.KindExaminer, col)

	report, err := p.Run(context.Background(), csvSource("examinerid,Extra,NAME\nE1,ignored,Ann\n"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.SuccessCount != 1 {
		t.Fatalf("SuccessCount = %d, want 1", report.SuccessCount)
	}
	if got := report.Successes[0]; got.NaturalKey != "E1" || got.Name != "Ann" {
		t.Errorf("Successes[0] = %+v, want E1/Ann", got)
	}
}

// failingCollection wraps a real collection but rejects writes for one
// natural key, standing in for a storage-side constraint failure.
type failingCollection struct {
	store.Collection[*model.Participant]
	rejectKey string
}

func (f *failingCollection) Insert(ctx context.Context, doc *model.Participant) (string, error) {
	if doc.NaturalKey == f.rejectKey {
		return "", errors.New("value violates collection constraint")
	}
	return f.Collection.Insert(ctx, doc)
}

func TestRun_RowIsolationOnStorageFailure(t *testing.T) {
	inner := store.NewMemory[*model.Participant]("naturalKey")
	col := &failingCollection{Collection: inner, rejectKey: "BAD"}
	p := New(model.KindExaminer, col)

	report, err := p.Run(context.Background(), csvSource("ExaminerID,Name\nE1,Ann\nBAD,Broken\nE2,Bob\n"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.SuccessCount != 2 || report.FailureCount != 1 {
		t.Fatalf("report = %d/%d, want 2 successes and 1 failure", report.SuccessCount, report.FailureCount)
	}
	if report.Failures[0].NaturalKey != "BAD" {
		t.Errorf("Failures[0].NaturalKey = %q, want BAD", report.Failures[0].NaturalKey)
	}
	// The underlying reason string must surface, not be swallowed.
	if !strings.Contains(report.Failures[0].Reason, "violates collection constraint") {
		t.Errorf("failure reason = %q, want underlying constraint error", report.Failures[0].Reason)
	}

	// Order preservation within each list.
	if report.Successes[0].NaturalKey != "E1" || report.Successes[1].NaturalKey != "E2" {
		t.Errorf("success order = %q, %q, want E1, E2",
			report.Successes[0].NaturalKey, report.Successes[1].NaturalKey)
	}
}

func TestRun_MissingHeaderIsInvalidFormat(t *testing.T) {
	col := store.NewMemory[*model.Participant]("naturalKey")
	p := New(model.KindExaminer, col)

	_, err := p.Run(context.Background(), csvSource(""))
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("Run() on empty body error = %v, want ErrInvalidFormat", err)
	}
}

func TestMappingForKind(t *testing.T) {
	tests := []struct {
		kind    model.Kind
		wantKey string
	}{
		{model.KindExaminer, "ExaminerID"},
		{model.KindExaminee, "ExamineeID"},
		{model.KindClient, "ClientID"},
	}

	for _, tt := range tests {
		m := MappingForKind(tt.kind)
		if m.KeyColumn != tt.wantKey {
			t.Errorf("MappingForKind(%s).KeyColumn = %q, want %q", tt.kind, m.KeyColumn, tt.wantKey)
		}
		if m.NameColumn != "Name" {
			t.Errorf("MappingForKind(%s).NameColumn = %q, want Name", tt.kind, m.NameColumn)
		}
	}
}
