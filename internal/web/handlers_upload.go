package web

import (
	"net/http"

	"github.com/oscehub/oscehub/internal/ingest"
	"github.com/oscehub/oscehub/internal/model"
)

// handleUploadCSV returns the multipart CSV ingestion handler for one
// participant kind. The response is always 200 with the row report when
// processing ran, even if every row failed: row failures are data. Only
// the media-type precondition and malformed requests get error statuses.
func (s *Server) handleUploadCSV(kind model.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.limiter.Acquire(r.Context()); err != nil {
			respondError(w, r, err)
			return
		}
		defer s.limiter.Release()

		maxSize := s.cfg.Upload.MaxFileSize
		r.Body = http.MaxBytesReader(w, r.Body, maxSize)

		if err := r.ParseMultipartForm(maxSize); err != nil {
			writeBadRequest(w, "file too large or invalid form")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeBadRequest(w, "no file provided")
			return
		}
		defer file.Close()

		col, err := s.cols.Participants(kind)
		if err != nil {
			respondError(w, r, err)
			return
		}

		pipeline := ingest.New(kind, col)
		report, err := pipeline.Run(r.Context(), ingest.Source{
			Reader:      file,
			ContentType: header.Header.Get("Content-Type"),
			Filename:    header.Filename,
		})
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, report)
	}
}
