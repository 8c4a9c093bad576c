// Package storage persists the set of offer identifiers that were already
// notified, so restarts do not repeat notifications.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	apperrors "github.com/darkkaiser/resale-watcher/internal/pkg/errors"
	applog "github.com/darkkaiser/resale-watcher/pkg/log"
)

const component = "watcher.storage"

// SeenOfferStore is a file-backed set of offer identifiers. Membership
// checks and additions are safe for concurrent use, persistence rewrites
// the whole file atomically.
type SeenOfferStore struct {
	mu   sync.Mutex
	path string
	seen map[string]struct{}
}

// NewSeenOfferStore loads the store from path. A missing file is a normal
// first run and yields an empty store. A corrupt file is logged and also
// yields an empty store, trading duplicate notifications for availability.
func NewSeenOfferStore(path string) (*SeenOfferStore, error) {
	if path == "" {
		return nil, apperrors.New(apperrors.InvalidInput, "the seen-offer store file path is empty")
	}

	s := &SeenOfferStore{
		path: path,
		seen: make(map[string]struct{}),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, apperrors.Wrap(err, apperrors.System, "the seen-offer store file could not be read")
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"file":  path,
			"error": err.Error(),
		}).Warn("the seen-offer store file is corrupt, starting from an empty set")

		return s, nil
	}

	for _, id := range ids {
		s.seen[id] = struct{}{}
	}

	return s, nil
}

// Contains reports whether the offer identifier was already notified.
func (s *SeenOfferStore) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.seen[id]
	return ok
}

// Add records the offer identifier and rewrites the file before returning.
// On a persistence failure the identifier stays in the in-memory set but
// the error is reported so the caller can surface it.
func (s *SeenOfferStore) Add(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[id]; ok {
		return nil
	}
	s.seen[id] = struct{}{}

	return s.persist()
}

// Len returns the number of recorded identifiers.
func (s *SeenOfferStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.seen)
}

// persist writes the full identifier list to a temporary file in the same
// directory and renames it over the store file, so readers never observe a
// partially written file. Callers must hold s.mu.
func (s *SeenOfferStore) persist() error {
	ids := make([]string, 0, len(s.seen))
	for id := range s.seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, apperrors.System, "the seen-offer list could not be encoded")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.Wrap(err, apperrors.System, "the seen-offer store directory could not be created")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return apperrors.Wrap(err, apperrors.System, "the seen-offer store temporary file could not be created")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.Wrap(err, apperrors.System, "the seen-offer store temporary file could not be written")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.Wrap(err, apperrors.System, "the seen-offer store temporary file could not be synced")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperrors.Wrap(err, apperrors.System, "the seen-offer store temporary file could not be closed")
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return apperrors.Wrap(err, apperrors.System, "the seen-offer store file could not be replaced")
	}

	return nil
}
