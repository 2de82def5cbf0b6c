// Package ingest implements the CSV bulk-ingestion and reconciliation
// pipeline for participant rosters. One generic pipeline serves all three
// participant kinds; the kind only selects the natural-key column and the
// target collection.
//
// Reconciliation is upsert-by-natural-key: an incoming row updates the
// stored record with the same natural key in place, or inserts a new one.
// Row failures are folded into the report and never abort later rows.
// Rows are processed strictly sequentially so that duplicate natural keys
// within one file reconcile deterministically in file order.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/oscehub/oscehub/internal/logging"
	"github.com/oscehub/oscehub/internal/model"
	"github.com/oscehub/oscehub/internal/store"
)

// ErrInvalidFormat is returned when the declared media type does not
// indicate CSV or the header row cannot be read. No rows are processed.
var ErrInvalidFormat = errors.New("ingest: invalid input format")

// Mapping names the recognized CSV columns for one participant kind.
// Unrecognized columns are ignored; header matching is case-insensitive.
type Mapping struct {
	KeyColumn  string // column holding the natural key, e.g. "ExaminerID"
	NameColumn string // column holding the display name
}

// MappingForKind returns the column mapping for a participant kind.
func MappingForKind(kind model.Kind) Mapping {
	switch kind {
	case model.KindExaminer:
		return Mapping{KeyColumn: "ExaminerID", NameColumn: "Name"}
	case model.KindExaminee:
		return Mapping{KeyColumn: "ExamineeID", NameColumn: "Name"}
	case model.KindClient:
		return Mapping{KeyColumn: "ClientID", NameColumn: "Name"}
	}
	return Mapping{}
}

// Source is an uploaded CSV byte stream with its declared media type.
type Source struct {
	Reader      io.Reader
	ContentType string // as declared by the caller, checked before parsing
	Filename    string // for logging only
}

// Pipeline reconciles CSV rows against one participant collection.
type Pipeline struct {
	kind    model.Kind
	mapping Mapping
	col     store.Collection[*model.Participant]
}

// New creates a pipeline for the given kind writing to col.
func New(kind model.Kind, col store.Collection[*model.Participant]) *Pipeline {
	return &Pipeline{
		kind:    kind,
		mapping: MappingForKind(kind),
		col:     col,
	}
}

// Run ingests one CSV source and returns the per-row report.
//
// The error return is reserved for precondition failures (wrong media
// type, unreadable header) where nothing was processed. Once row
// processing starts, every outcome is recorded in the report and Run
// returns a nil error; partial success is the expected terminal state.
func (p *Pipeline) Run(ctx context.Context, src Source) (*model.Report, error) {
	if !isCSVMediaType(src.ContentType) {
		return nil, fmt.Errorf("%w: media type %q does not indicate CSV", ErrInvalidFormat, src.ContentType)
	}

	reader := csv.NewReader(src.Reader)
	reader.FieldsPerRecord = -1 // rows may be ragged; missing cells become empty values

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header row: %v", ErrInvalidFormat, err)
	}
	idx := headerIndex(header)

	log := logging.WithFields(ctx,
		"kind", p.kind,
		"file", src.Filename,
	)
	log.Info("csv ingestion started")

	report := &model.Report{}

	// Rows must stay sequential: duplicate natural keys within one file
	// reconcile in file order, and the storage layer has no
	// compare-and-swap to make concurrent upserts safe.
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			report.AddFailure(model.RowFailure{
				Line:   line,
				Reason: fmt.Sprintf("malformed row: %v", err),
			})
			continue
		}
		if isEmptyRow(row) {
			continue
		}

		rec := p.rowToParticipant(row, idx)
		p.reconcile(ctx, rec, line, report)
	}

	report.Message = fmt.Sprintf("CSV processing complete for %s records", p.kind)

	log.Info("csv ingestion finished",
		"total", report.TotalProcessed,
		"succeeded", report.SuccessCount,
		"failed", report.FailureCount,
	)
	return report, nil
}

// rowToParticipant extracts the recognized columns from one row. Columns
// absent from the header, or cells beyond the row's length, yield empty
// values; reconcile rejects the row if the natural key ends up empty.
func (p *Pipeline) rowToParticipant(row []string, idx map[string]int) *model.Participant {
	return &model.Participant{
		Kind:       p.kind,
		NaturalKey: cellValue(row, idx, p.mapping.KeyColumn),
		Name:       cellValue(row, idx, p.mapping.NameColumn),
	}
}

// reconcile performs the insert-or-update decision for one record and
// records the outcome. Storage errors are captured as row failures with
// the underlying reason string.
func (p *Pipeline) reconcile(ctx context.Context, rec *model.Participant, line int, report *model.Report) {
	if rec.NaturalKey == "" {
		report.AddFailure(model.RowFailure{
			Line:   line,
			Name:   rec.Name,
			Reason: fmt.Sprintf("missing natural key (column %q)", p.mapping.KeyColumn),
		})
		return
	}

	existing, err := p.col.FindOne(ctx, store.Filter{"naturalKey": rec.NaturalKey})
	switch {
	case err == nil:
		existing.Name = rec.Name
		existing.Kind = rec.Kind
		if _, err := p.col.UpdateByID(ctx, existing.ID, existing); err != nil {
			report.AddFailure(failureFor(rec, line, err))
			return
		}
		report.AddSuccess(model.RowResult{
			Line:       line,
			NaturalKey: rec.NaturalKey,
			Name:       rec.Name,
			Action:     model.ActionUpdated,
		})

	case errors.Is(err, store.ErrNotFound):
		if _, err := p.col.Insert(ctx, rec); err != nil {
			report.AddFailure(failureFor(rec, line, err))
			return
		}
		report.AddSuccess(model.RowResult{
			Line:       line,
			NaturalKey: rec.NaturalKey,
			Name:       rec.Name,
			Action:     model.ActionInserted,
		})

	default:
		report.AddFailure(failureFor(rec, line, err))
	}
}

func failureFor(rec *model.Participant, line int, err error) model.RowFailure {
	return model.RowFailure{
		Line:       line,
		NaturalKey: rec.NaturalKey,
		Name:       rec.Name,
		Reason:     err.Error(),
	}
}

// isCSVMediaType reports whether the declared content type indicates CSV.
func isCSVMediaType(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch mt {
	case "text/csv", "application/csv":
		return true
	}
	return strings.HasSuffix(mt, "+csv")
}

// headerIndex maps cleaned column names (lowercase) to their position.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[cleanHeader(h)] = i
	}
	return idx
}

// cleanHeader normalizes a header cell: strips a UTF-8 BOM, trims
// whitespace, and lowercases for case-insensitive matching.
func cleanHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.TrimSpace(h))
}

// cellValue returns the trimmed cell under the named column, or "" when
// the column is absent or the row is too short.
func cellValue(row []string, idx map[string]int, column string) string {
	pos, ok := idx[cleanHeader(column)]
	if !ok || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

// isEmptyRow reports whether every cell is blank.
func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
