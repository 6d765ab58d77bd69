/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/carverauto/warehouse/pkg/hashutil"
	"github.com/carverauto/warehouse/pkg/logger"
	"github.com/carverauto/warehouse/pkg/models"
)

const fileExt = ".tgz"

// Merge outcomes reported to an Observer.
const (
	MergeOK         = "ok"
	MergeCorrupt    = "corrupt"
	MergeWriteError = "write_error"
)

// Observer receives the outcome of every merge attempt.
type Observer interface {
	ObserveMerge(result string, duration time.Duration)
}

// Store persists one compressed container per calendar day under a data
// directory. Merges are expected to be issued serially by a single process;
// the mutex only guards against accidental overlap within that process.
type Store struct {
	mu            sync.Mutex
	dir           string
	keyer         *DayKeyer
	fs            FileSystem
	logger        logger.Logger
	retentionDays int
	observer      Observer
}

// Option configures a Store.
type Option func(*Store)

// WithFileSystem replaces the local disk implementation.
func WithFileSystem(fsys FileSystem) Option {
	return func(s *Store) {
		s.fs = fsys
	}
}

// WithRetention keeps buckets for the given number of days. Zero keeps
// everything.
func WithRetention(days int) Option {
	return func(s *Store) {
		s.retentionDays = days
	}
}

// WithObserver registers a merge observer, typically the metrics collector.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		s.observer = o
	}
}

// NewStore opens or creates the archive rooted at dir.
func NewStore(dir string, keyer *DayKeyer, log logger.Logger, opts ...Option) (*Store, error) {
	s := &Store{
		dir:    dir,
		keyer:  keyer,
		fs:     OSFileSystem{},
		logger: log,
	}

	for _, o := range opts {
		o(s)
	}

	if err := s.fs.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}

	return s, nil
}

// Keyer returns the day keyer shared by writers and readers of this store.
func (s *Store) Keyer() *DayKeyer {
	return s.keyer
}

// RetentionDays reports the configured retention window.
func (s *Store) RetentionDays() int {
	return s.retentionDays
}

func (s *Store) path(dateKey string) string {
	return filepath.Join(s.dir, dateKey+fileExt)
}

// Merge adds snapshot to the bucket for dateKey under the epoch-millisecond
// key of at. An existing bucket that cannot be decoded is left untouched and
// the snapshot is dropped.
func (s *Store) Merge(ctx context.Context, dateKey string, at time.Time, snapshot models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key, err := s.keyer.Normalize(dateKey)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	ts := models.Millis(at)
	path := s.path(key)

	old, err := s.load(path)

	switch {
	case errors.Is(err, ErrNotFound):
		old = nil
	case err != nil:
		s.logger.Error().
			Err(err).
			Str("day", key).
			Str("path", path).
			Int64("timestamp", ts).
			Msg("Existing bucket is corrupt, dropping snapshot")
		s.observe(MergeCorrupt, start)

		return err
	}

	merged := MergeBucket(old, ts, snapshot, s.logger)

	if err := s.write(key, merged); err != nil {
		s.logger.Error().
			Err(err).
			Str("day", key).
			Str("path", path).
			Int64("timestamp", ts).
			Msg("Failed to write bucket")
		s.observe(MergeWriteError, start)

		return err
	}

	s.logger.Info().
		Str("day", key).
		Int64("timestamp", ts).
		Int("services", len(snapshot)).
		Int("snapshots", len(merged)).
		Msg("Snapshot archived")
	s.observe(MergeOK, start)

	return nil
}

func (s *Store) observe(result string, start time.Time) {
	if s.observer != nil {
		s.observer.ObserveMerge(result, time.Since(start))
	}
}

func (s *Store) load(path string) (models.DayBucket, error) {
	data, err := s.fs.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrArchiveCorrupt, path, err)
	}

	return Decode(data)
}

func (s *Store) write(key string, bucket models.DayBucket) error {
	data, err := Encode(key, bucket)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArchiveWrite, err)
	}

	tmp, err := s.fs.WriteTemp(s.dir, "."+key+fileExt+".tmp-*", data)
	if err != nil {
		return fmt.Errorf("%w: temp file: %w", ErrArchiveWrite, err)
	}

	if err := s.fs.Rename(tmp, s.path(key)); err != nil {
		_ = s.fs.Remove(tmp)

		return fmt.Errorf("%w: rename: %w", ErrArchiveWrite, err)
	}

	return nil
}

// Read returns the raw container bytes for dateKey.
func (s *Store) Read(dateKey string) ([]byte, error) {
	key, err := s.keyer.Normalize(dateKey)
	if err != nil {
		return nil, err
	}

	data, err := s.fs.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	if err != nil {
		return nil, err
	}

	return data, nil
}

// ContentHash returns the lowercase hex SHA-256 of the raw container bytes.
func (s *Store) ContentHash(dateKey string) (string, error) {
	data, err := s.Read(dateKey)
	if err != nil {
		return "", err
	}

	return hashutil.HexSHA256(data), nil
}

// Load decodes the bucket for dateKey.
func (s *Store) Load(dateKey string) (models.DayBucket, error) {
	data, err := s.Read(dateKey)
	if err != nil {
		return nil, err
	}

	return Decode(data)
}

// List returns the keys of every stored bucket, oldest first. Files whose
// names are not day keys are ignored.
func (s *Store) List() ([]string, error) {
	days, err := s.days()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(days))
	for _, d := range days {
		keys = append(keys, d.key)
	}

	return keys, nil
}

type storedDay struct {
	key string
	day time.Time
}

func (s *Store) days() ([]storedDay, error) {
	entries, err := s.fs.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}

	days := make([]storedDay, 0, len(entries))

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
			continue
		}

		key := strings.TrimSuffix(name, fileExt)

		day, err := s.keyer.Parse(key)
		if err != nil || s.keyer.Key(day) != key {
			continue
		}

		days = append(days, storedDay{key: key, day: day})
	}

	sort.Slice(days, func(i, j int) bool { return days[i].day.Before(days[j].day) })

	return days, nil
}

// Retained reports whether dateKey falls inside the retention window ending
// on the day of now.
func (s *Store) Retained(dateKey string, now time.Time) bool {
	if s.retentionDays <= 0 {
		return true
	}

	age, err := s.keyer.DaysBetween(dateKey, now)
	if err != nil {
		return false
	}

	return age < s.retentionDays
}

// Prune deletes buckets that fell out of the retention window and returns
// how many were removed.
func (s *Store) Prune(now time.Time) (int, error) {
	if s.retentionDays <= 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	days, err := s.days()
	if err != nil {
		return 0, err
	}

	removed := 0

	for _, d := range days {
		if s.Retained(d.key, now) {
			continue
		}

		if err := s.fs.Remove(s.path(d.key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn().Err(err).Str("day", d.key).Msg("Failed to prune bucket")

			continue
		}

		s.logger.Info().Str("day", d.key).Msg("Pruned expired bucket")

		removed++
	}

	return removed, nil
}
