package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oscehub/oscehub/internal/model"
	"github.com/oscehub/oscehub/internal/store"
)

// resource is one JSON CRUD surface over a collection. A single generic
// implementation serves all five entity kinds; per-kind behavior is
// limited to allocation, validation, and an optional prepare hook.
type resource[T store.Document] struct {
	name     string
	col      store.Collection[T]
	alloc    func() T
	validate func(T) error
	prepare  func(T) // normalization applied before every write
}

// mountCRUD registers the standard route set for a resource. pattern "/"
// registers directly on r so sibling routes can share the prefix.
func mountCRUD[T store.Document](r chi.Router, pattern string, res *resource[T]) {
	if pattern == "/" {
		res.register(r)
		return
	}
	r.Route(pattern, res.register)
}

func (res *resource[T]) register(r chi.Router) {
	r.Post("/", res.create)
	r.Get("/", res.list)
	r.Get("/{id}", res.get)
	r.Put("/{id}", res.update)
	r.Delete("/{id}", res.remove)
}

func (res *resource[T]) decode(r *http.Request) (T, error) {
	doc := res.alloc()
	if err := json.NewDecoder(r.Body).Decode(doc); err != nil {
		var zero T
		return zero, err
	}
	if res.prepare != nil {
		res.prepare(doc)
	}
	if res.validate != nil {
		if err := res.validate(doc); err != nil {
			var zero T
			return zero, err
		}
	}
	return doc, nil
}

func (res *resource[T]) create(w http.ResponseWriter, r *http.Request) {
	doc, err := res.decode(r)
	if err != nil {
		writeBadRequest(w, "invalid "+res.name+": "+err.Error())
		return
	}

	if _, err := res.col.Insert(r.Context(), doc); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (res *resource[T]) list(w http.ResponseWriter, r *http.Request) {
	docs, err := res.col.FindAll(r.Context(), nil)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if docs == nil {
		docs = []T{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (res *resource[T]) get(w http.ResponseWriter, r *http.Request) {
	doc, err := res.col.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (res *resource[T]) update(w http.ResponseWriter, r *http.Request) {
	doc, err := res.decode(r)
	if err != nil {
		writeBadRequest(w, "invalid "+res.name+": "+err.Error())
		return
	}

	updated, err := res.col.UpdateByID(r.Context(), chi.URLParam(r, "id"), doc)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (res *resource[T]) remove(w http.ResponseWriter, r *http.Request) {
	n, err := res.col.DeleteMany(r.Context(), store.Filter{"id": chi.URLParam(r, "id")})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if n == 0 {
		respondError(w, r, store.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (s *Server) administrationResource() *resource[*model.Administration] {
	return &resource[*model.Administration]{
		name:  "administration",
		col:   s.cols.Administrations,
		alloc: func() *model.Administration { return &model.Administration{} },
		validate: func(a *model.Administration) error {
			if a.Name == "" {
				return errors.New("name is required")
			}
			return nil
		},
		prepare: func(a *model.Administration) {
			if a.TrackIDs == nil {
				a.TrackIDs = []string{}
			}
		},
	}
}

func (s *Server) trackResource() *resource[*model.Track] {
	return &resource[*model.Track]{
		name:  "track",
		col:   s.cols.Tracks,
		alloc: func() *model.Track { return &model.Track{} },
		validate: func(t *model.Track) error {
			if t.Name == "" {
				return errors.New("name is required")
			}
			if t.AdministrationID == "" {
				return errors.New("administrationId is required")
			}
			return nil
		},
	}
}

func (s *Server) stationResource() *resource[*model.Station] {
	return &resource[*model.Station]{
		name:  "station",
		col:   s.cols.Stations,
		alloc: func() *model.Station { return &model.Station{} },
		validate: func(st *model.Station) error {
			if st.Name == "" {
				return errors.New("name is required")
			}
			if st.TrackID == "" {
				return errors.New("trackId is required")
			}
			return nil
		},
	}
}

func (s *Server) participantResource(kind model.Kind) *resource[*model.Participant] {
	col, _ := s.cols.Participants(kind)
	return &resource[*model.Participant]{
		name:  string(kind),
		col:   col,
		alloc: func() *model.Participant { return &model.Participant{} },
		validate: func(p *model.Participant) error {
			if p.NaturalKey == "" {
				return errors.New("naturalKey is required")
			}
			return nil
		},
		// The route determines the kind; the body cannot override it.
		prepare: func(p *model.Participant) { p.Kind = kind },
	}
}
