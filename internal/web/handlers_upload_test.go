package web

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/oscehub/oscehub/internal/model"
)

// multipartCSV builds a multipart body with one "file" part carrying the
// given content type.
func multipartCSV(t *testing.T, contentType, body string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="roster.csv"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte(body)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func uploadCSV(t *testing.T, srv *Server, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	buf, formType := multipartCSV(t, contentType, body)
	req := httptest.NewRequest(http.MethodPost, path, buf)
	req.Header.Set("Content-Type", formType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestUploadCSV_Report(t *testing.T) {
	srv, cols := newTestServer(t)

	rec := uploadCSV(t, srv, "/api/examiners/upload-csv", "text/csv",
		"ExaminerID,Name\nE1,Ann\nE2,Bob\n,NoKey\n")
	if rec.Code != http.StatusOK {
		t.Fatalf("upload = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	report := decodeBody[model.Report](t, rec)
	if report.SuccessCount != 2 || report.FailureCount != 1 {
		t.Fatalf("report = %d/%d, want 2 successes and 1 failure", report.SuccessCount, report.FailureCount)
	}
	if report.TotalProcessed != 3 {
		t.Errorf("TotalProcessed = %d, want 3", report.TotalProcessed)
	}

	if n, _ := cols.Examiners.Count(context.Background()); n != 2 {
		t.Errorf("examiner count = %d, want 2", n)
	}
}

func TestUploadCSV_UpsertOnSecondUpload(t *testing.T) {
	srv, _ := newTestServer(t)

	first := uploadCSV(t, srv, "/api/clients/upload-csv", "text/csv", "ClientID,Name\nC1,Pat\n")
	if first.Code != http.StatusOK {
		t.Fatalf("first upload = %d, want 200", first.Code)
	}
	second := uploadCSV(t, srv, "/api/clients/upload-csv", "text/csv", "ClientID,Name\nC1,Pat R\n")
	if second.Code != http.StatusOK {
		t.Fatalf("second upload = %d, want 200", second.Code)
	}

	report := decodeBody[model.Report](t, second)
	if len(report.Successes) != 1 || report.Successes[0].Action != model.ActionUpdated {
		t.Fatalf("second upload successes = %+v, want one updated row", report.Successes)
	}
}

func TestUploadCSV_RejectsWrongMediaType(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := uploadCSV(t, srv, "/api/examiners/upload-csv", "text/plain",
		"ExaminerID,Name\nE1,Ann\n")
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("upload = %d, want 415 (body %s)", rec.Code, rec.Body.String())
	}
	errResp := decodeBody[ErrorResponse](t, rec)
	if errResp.Code != "INVALID_INPUT_FORMAT" {
		t.Errorf("error code = %q, want INVALID_INPUT_FORMAT", errResp.Code)
	}
}

func TestUploadCSV_NoFilePart(t *testing.T) {
	srv, _ := newTestServer(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.WriteField("unrelated", "value")
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/examiners/upload-csv", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("upload without file = %d, want 400", rec.Code)
	}
}
