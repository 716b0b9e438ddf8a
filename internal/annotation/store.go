// Package annotation persists client-local, per-order selection state in a
// durable key-value document keyed by order id. The data never reaches the
// backing order store and must survive process restarts and every order
// list refresh.
package annotation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/quotedesk/quotedesk/internal/domain"
	"go.uber.org/zap"
)

// record is the on-disk shape of one annotation entry. ChangedAt is
// omitted entirely at level 0 so a stale timestamp can never resurrect.
type record struct {
	SelectionLevel int    `json:"selection_level"`
	ChangedAt      string `json:"changed_at,omitempty"`
}

// Store reads and writes the whole annotation document. The read-modify-
// write cycle is serialized so selection changes in quick succession cannot
// lose updates.
type Store struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Load returns the annotation for an order, defaulting to level 0 with no
// timestamp when absent or when the store is unreadable. It never fails.
func (s *Store) Load(orderID int64) domain.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readAll()[orderID]
}

// LoadAll returns every stored annotation keyed by order id. A corrupt or
// missing document yields an empty map.
func (s *Store) LoadAll() map[int64]domain.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readAll()
}

// Save durably upserts one order's annotation. Level 0 removes the entry
// rather than blanking it.
func (s *Store) Save(orderID int64, a domain.Annotation) error {
	if a.SelectionLevel < 0 || a.SelectionLevel > domain.MaxSelectionLevel {
		return fmt.Errorf("selection level %d out of range", a.SelectionLevel)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.readAll()
	if a.SelectionLevel == 0 {
		delete(all, orderID)
	} else {
		all[orderID] = a
	}
	return s.writeAll(all)
}

// readAll parses the document. Callers must hold the mutex. A document that
// cannot be read at all is treated as "no annotations"; the unreadable file
// is preserved next to the store for inspection.
func (s *Store) readAll() map[int64]domain.Annotation {
	out := make(map[int64]domain.Annotation)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("annotation document unreadable, starting empty",
				zap.String("path", s.path),
				zap.Error(err))
		}
		return out
	}
	if len(data) == 0 {
		return out
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("annotation document malformed, starting empty",
			zap.String("path", s.path),
			zap.Error(fmt.Errorf("%w: %v", domain.ErrAnnotationCorrupt, err)))
		s.backupCorrupt(data)
		return out
	}

	for key, msg := range raw {
		orderID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			s.logger.Warn("skipping annotation entry with bad key",
				zap.String("key", key))
			continue
		}

		// Legacy documents stored bare booleans; those are treated as
		// corrupt entries, not coerced.
		var rec record
		if err := json.Unmarshal(msg, &rec); err != nil {
			s.logger.Warn("skipping malformed annotation entry",
				zap.String("key", key),
				zap.Error(fmt.Errorf("%w: %v", domain.ErrAnnotationCorrupt, err)))
			continue
		}
		if rec.SelectionLevel <= 0 || rec.SelectionLevel > domain.MaxSelectionLevel {
			continue
		}

		a := domain.Annotation{SelectionLevel: rec.SelectionLevel}
		if rec.ChangedAt != "" {
			ts, err := time.Parse(time.RFC3339, rec.ChangedAt)
			if err != nil {
				s.logger.Warn("skipping annotation entry with bad timestamp",
					zap.String("key", key),
					zap.String("changed_at", rec.ChangedAt))
				continue
			}
			a.ChangedAt = &ts
		}
		out[orderID] = a
	}
	return out
}

// writeAll replaces the document atomically. Callers must hold the mutex.
func (s *Store) writeAll(all map[int64]domain.Annotation) error {
	doc := make(map[string]record, len(all))
	for orderID, a := range all {
		rec := record{SelectionLevel: a.SelectionLevel}
		if a.ChangedAt != nil {
			rec.ChangedAt = a.ChangedAt.UTC().Format(time.RFC3339)
		}
		doc[strconv.FormatInt(orderID, 10)] = rec
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode annotation document: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create annotation directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write annotation document: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace annotation document: %w", err)
	}
	return nil
}

func (s *Store) backupCorrupt(data []byte) {
	backup := s.path + ".corrupt"
	if err := os.WriteFile(backup, data, 0o644); err != nil {
		s.logger.Warn("failed to back up corrupt annotation document",
			zap.String("path", backup),
			zap.Error(err))
	}
}
