// Package store persists harvested records to a single JSON document,
// deduplicated by record identity.
//
// Every write replaces the whole file: the document is encoded to a temporary
// file next to the destination and renamed over it, so a reader sees either
// the previous or the new contents. A missing, empty or corrupt file reads as
// an empty store. Only one writer per file is supported.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/khrees2412/jobharvest/internal/logger"
	"github.com/khrees2412/jobharvest/pkg/models"
)

// Outcome is the result of Accept.
type Outcome int

const (
	Stored Outcome = iota
	Duplicate
)

func (o Outcome) String() string {
	if o == Duplicate {
		return "duplicate"
	}
	return "stored"
}

// Summary describes a reconcile write.
type Summary struct {
	TotalJobs    int `json:"total_jobs"`
	NewJobsAdded int `json:"new_jobs_added"`
	ExistingJobs int `json:"existing_jobs"`
}

// Store owns one persisted document.
type Store struct {
	mu   sync.Mutex
	path string
	log  logger.Logger
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a store bound to path. The file is not touched until the first write.
func New(path string, log logger.Logger, opts ...Option) *Store {
	s := &Store{path: path, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the destination file.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted records. It never fails; unreadable contents are
// logged and treated as empty.
func (s *Store) Load() []models.JobRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() []models.JobRecord {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("Store unreadable, treating as empty", logger.String("path", s.path), logger.Error(err))
		}
		return []models.JobRecord{}
	}

	jobs, err := decode(data)
	if err != nil {
		s.log.Warn("Store corrupt, treating as empty", logger.String("path", s.path), logger.Error(err))
		return []models.JobRecord{}
	}
	return jobs
}

// decode accepts both the document form and a legacy bare array of records.
func decode(data []byte) ([]models.JobRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []models.JobRecord{}, nil
	}

	if data[0] == '[' {
		var jobs []models.JobRecord
		if err := json.Unmarshal(data, &jobs); err != nil {
			return nil, fmt.Errorf("decode record array: %w", err)
		}
		return nonNil(jobs), nil
	}

	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return nonNil(doc.Jobs), nil
}

func nonNil(jobs []models.JobRecord) []models.JobRecord {
	if jobs == nil {
		return []models.JobRecord{}
	}
	return jobs
}

// Accept persists rec unless a record with the same identity is already
// stored. A duplicate performs no write.
func (s *Store) Accept(rec models.JobRecord) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := s.load()
	id := rec.Identity()
	for _, j := range jobs {
		if j.Identity() == id {
			return Duplicate, nil
		}
	}

	jobs = append(jobs, rec)
	doc := models.Document{
		ScrapeTimestamp: s.now().Format(time.RFC3339),
		TotalJobs:       len(jobs),
		Jobs:            jobs,
	}
	if err := s.write(doc); err != nil {
		return Stored, err
	}
	return Stored, nil
}

// Reconcile merges a run's records into the store, skipping any identity
// already present (including records written earlier by Accept) or repeated
// within batch, and rewrites the document with aggregate counts. Running it
// twice with the same batch adds nothing the second time.
func (s *Store) Reconcile(batch []models.JobRecord) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := s.load()
	seen := make(map[string]struct{}, len(jobs)+len(batch))
	for _, j := range jobs {
		seen[j.Identity()] = struct{}{}
	}

	existing := len(jobs)
	added := 0
	for _, rec := range batch {
		id := rec.Identity()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		jobs = append(jobs, rec)
		added++
	}

	summary := Summary{TotalJobs: len(jobs), NewJobsAdded: added, ExistingJobs: existing}
	doc := models.Document{
		ScrapeTimestamp: s.now().Format(time.RFC3339),
		TotalJobs:       summary.TotalJobs,
		NewJobsAdded:    &summary.NewJobsAdded,
		ExistingJobs:    &summary.ExistingJobs,
		Jobs:            jobs,
	}
	if err := s.write(doc); err != nil {
		return summary, err
	}
	return summary, nil
}

func (s *Store) write(doc models.Document) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}
