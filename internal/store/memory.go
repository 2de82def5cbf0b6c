package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-memory Collection implementation. It is the collection
// fake used by tests and works for single-process development runs. Field
// matching uses the document's JSON representation, so filters behave the
// same as against the Postgres implementation.
type Memory[T Document] struct {
	mu        sync.RWMutex
	docs      map[string]T
	order     []string // insertion order of IDs
	uniqueKey string   // JSON field name with a uniqueness constraint, "" for none
}

var _ Collection[Document] = (*Memory[Document])(nil)

// NewMemory creates an empty in-memory collection. uniqueKey is the JSON
// field name to enforce uniqueness on (pass "" for no constraint).
func NewMemory[T Document](uniqueKey string) *Memory[T] {
	return &Memory[T]{
		docs:      make(map[string]T),
		uniqueKey: uniqueKey,
	}
}

// Insert implements Collection.
func (m *Memory[T]) Insert(ctx context.Context, doc T) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.uniqueKey != "" {
		val, err := fieldValue(doc, m.uniqueKey)
		if err != nil {
			return "", err
		}
		if m.lookupLocked(m.uniqueKey, val, "") != "" {
			return "", fmt.Errorf("%w: %s=%q", ErrDuplicateKey, m.uniqueKey, val)
		}
	}

	id := uuid.NewString()
	doc.SetDocumentID(id)

	stored, err := clone(doc)
	if err != nil {
		return "", err
	}
	m.docs[id] = stored
	m.order = append(m.order, id)
	return id, nil
}

// FindOne implements Collection.
func (m *Memory[T]) FindOne(ctx context.Context, f Filter) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.order {
		ok, err := matches(m.docs[id], f)
		if err != nil {
			return zero, err
		}
		if ok {
			return clone(m.docs[id])
		}
	}
	return zero, ErrNotFound
}

// FindByID implements Collection.
func (m *Memory[T]) FindByID(ctx context.Context, id string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok {
		return zero, ErrNotFound
	}
	return clone(doc)
}

// FindAll implements Collection.
func (m *Memory[T]) FindAll(ctx context.Context, f Filter) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []T
	for _, id := range m.order {
		ok, err := matches(m.docs[id], f)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		c, err := clone(m.docs[id])
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// UpdateByID implements Collection.
func (m *Memory[T]) UpdateByID(ctx context.Context, id string, doc T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return zero, ErrNotFound
	}

	doc.SetDocumentID(id)

	if m.uniqueKey != "" {
		val, err := fieldValue(doc, m.uniqueKey)
		if err != nil {
			return zero, err
		}
		if other := m.lookupLocked(m.uniqueKey, val, id); other != "" {
			return zero, fmt.Errorf("%w: %s=%q", ErrDuplicateKey, m.uniqueKey, val)
		}
	}

	stored, err := clone(doc)
	if err != nil {
		return zero, err
	}
	m.docs[id] = stored
	return clone(stored)
}

// DeleteMany implements Collection.
func (m *Memory[T]) DeleteMany(ctx context.Context, f Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	remaining := m.order[:0]
	for _, id := range m.order {
		ok, err := matches(m.docs[id], f)
		if err != nil {
			return deleted, err
		}
		if ok {
			delete(m.docs, id)
			deleted++
		} else {
			remaining = append(remaining, id)
		}
	}
	m.order = remaining
	return deleted, nil
}

// Count implements Collection.
func (m *Memory[T]) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.docs)), nil
}

// lookupLocked returns the ID of a document whose field equals val,
// skipping excludeID. Caller must hold the lock.
func (m *Memory[T]) lookupLocked(field, val, excludeID string) string {
	for _, id := range m.order {
		if id == excludeID {
			continue
		}
		v, err := fieldValue(m.docs[id], field)
		if err == nil && v == val {
			return id
		}
	}
	return ""
}

// matches reports whether doc satisfies every equality in f.
func matches[T Document](doc T, f Filter) (bool, error) {
	if len(f) == 0 {
		return true, nil
	}
	fields, err := docFields(doc)
	if err != nil {
		return false, err
	}
	for k, want := range f {
		got, ok := fields[k]
		if !ok || got != want {
			return false, nil
		}
	}
	return true, nil
}

// fieldValue extracts one JSON field of doc as a string.
func fieldValue[T Document](doc T, field string) (string, error) {
	fields, err := docFields(doc)
	if err != nil {
		return "", err
	}
	return fields[field], nil
}

// docFields flattens the document's top-level JSON fields to strings.
// Non-string scalars are rendered with fmt.Sprint so filters like
// {"rating": "5"} work against numeric fields.
func docFields[T Document](doc T) (map[string]string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("store: marshal document: %w", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("store: unmarshal document: %w", err)
	}
	out := make(map[string]string, len(generic))
	for k, v := range generic {
		switch val := v.(type) {
		case string:
			out[k] = val
		case float64:
			// JSON numbers decode as float64; integers must not grow a
			// trailing ".0" or filters on ID-like fields break.
			if val == float64(int64(val)) {
				out[k] = fmt.Sprintf("%d", int64(val))
			} else {
				out[k] = fmt.Sprint(val)
			}
		case nil:
			out[k] = ""
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out, nil
}

// clone deep-copies a document through its JSON form so callers never
// share memory with the stored copy.
func clone[T Document](doc T) (T, error) {
	var zero T
	raw, err := json.Marshal(doc)
	if err != nil {
		return zero, fmt.Errorf("store: clone document: %w", err)
	}
	out := newDocument[T]()
	if err := json.Unmarshal(raw, out); err != nil {
		return zero, fmt.Errorf("store: clone document: %w", err)
	}
	return out, nil
}
