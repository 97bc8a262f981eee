// Package usage persists deep scan counts between runs in a JSON file.
package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// periodLayout names a calendar month. Counts reset when it changes.
const periodLayout = "2006-01"

// File is the on-disk usage record.
type File struct {
	Version  int            `json:"version"`
	Period   string         `json:"period"`
	Created  time.Time      `json:"created"`
	Modified time.Time      `json:"modified"`
	Counts   map[string]int `json:"counts"`
}

// New creates an empty record for the period containing now.
func New(now time.Time) *File {
	return &File{
		Version:  1,
		Period:   now.UTC().Format(periodLayout),
		Created:  now,
		Modified: now,
		Counts:   make(map[string]int),
	}
}

// Load reads a usage file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse usage file: %w", err)
	}
	if f.Counts == nil {
		f.Counts = make(map[string]int)
	}
	return &f, nil
}

// Save writes the record to path, creating parent directories.
func (f *File) Save(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Store is a file-backed deep scan quota store. Every call re-reads the
// file, so separate processes see each other's increments once saved.
type Store struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// Open returns a store backed by path. The file is created on the first
// increment.
func Open(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// current loads the record, starting a fresh one when the file is missing
// or belongs to an earlier period.
func (s *Store) current() (*File, error) {
	now := s.now()
	f, err := Load(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(now), nil
	}
	if err != nil {
		return nil, err
	}
	if f.Period != now.UTC().Format(periodLayout) {
		return New(now), nil
	}
	return f, nil
}

func (s *Store) Used(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.current()
	if err != nil {
		return 0, err
	}
	return f.Counts[userID], nil
}

func (s *Store) Increment(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.current()
	if err != nil {
		return 0, err
	}
	f.Counts[userID]++
	f.Modified = s.now()
	if err := f.Save(s.path); err != nil {
		return 0, fmt.Errorf("failed to save usage file: %w", err)
	}
	return f.Counts[userID], nil
}

func (s *Store) Release(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.current()
	if err != nil {
		return err
	}
	if f.Counts[userID] == 0 {
		return nil
	}
	f.Counts[userID]--
	f.Modified = s.now()
	if err := f.Save(s.path); err != nil {
		return fmt.Errorf("failed to save usage file: %w", err)
	}
	return nil
}
