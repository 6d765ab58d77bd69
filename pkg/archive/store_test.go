package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/warehouse/pkg/hashutil"
	"github.com/carverauto/warehouse/pkg/logger"
	"github.com/carverauto/warehouse/pkg/models"
)

var errInjected = errors.New("injected failure")

// faultFS wraps the local disk and fails selected operations.
type faultFS struct {
	OSFileSystem
	failWrite  bool
	failRename bool
	temps      []string
}

func (f *faultFS) WriteTemp(dir, pattern string, data []byte) (string, error) {
	if f.failWrite {
		return "", errInjected
	}

	path, err := f.OSFileSystem.WriteTemp(dir, pattern, data)
	if err == nil {
		f.temps = append(f.temps, path)
	}

	return path, err
}

func (f *faultFS) Rename(oldpath, newpath string) error {
	if f.failRename {
		return errInjected
	}

	return f.OSFileSystem.Rename(oldpath, newpath)
}

type recordingObserver struct {
	results []string
}

func (r *recordingObserver) ObserveMerge(result string, _ time.Duration) {
	r.results = append(r.results, result)
}

func newTestStore(t *testing.T, log logger.Logger, opts ...Option) *Store {
	t.Helper()

	keyer, err := NewDayKeyer("")
	require.NoError(t, err)

	s, err := NewStore(t.TempDir(), keyer, log, opts...)
	require.NoError(t, err)

	return s
}

func upRecord(id string, latency int) models.StatusRecord {
	return models.StatusRecord{
		ServiceID:      id,
		URL:            "https://" + id + ".roblox.com",
		StatusCode:     200,
		LatencyMs:      latency,
		Classification: models.Classification{Name: models.StatusUp, Reason: "No problems detected"},
		Name:           id,
		Message:        "OK",
	}
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}

	return names
}

func TestStoreMergeIntoEmptyBucket(t *testing.T) {
	obs := &recordingObserver{}
	s := newTestStore(t, logger.NewTestLogger(), WithObserver(obs))

	at := time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC)
	snap := models.Snapshot{"a": upRecord("a", 120)}

	require.NoError(t, s.Merge(context.Background(), "3-7-2025", at, snap))

	bucket, err := s.Load("3-7-2025")
	require.NoError(t, err)
	assert.Equal(t, models.DayBucket{at.UnixMilli(): snap}, bucket)
	assert.Equal(t, []string{MergeOK}, obs.results)
	assert.Equal(t, []string{"3-7-2025.tgz"}, dirNames(t, s.dir))
}

func TestStoreSecondMergePreservesFirst(t *testing.T) {
	s := newTestStore(t, logger.NewTestLogger())
	ctx := context.Background()

	t1 := time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	s1 := models.Snapshot{"a": upRecord("a", 120)}
	s2 := models.Snapshot{"a": upRecord("a", 300), "b": upRecord("b", 80)}

	require.NoError(t, s.Merge(ctx, "3-7-2025", t1, s1))

	before, err := s.Load("3-7-2025")
	require.NoError(t, err)
	firstBefore, err := json.Marshal(before[t1.UnixMilli()])
	require.NoError(t, err)

	require.NoError(t, s.Merge(ctx, "3-7-2025", t2, s2))

	after, err := s.Load("3-7-2025")
	require.NoError(t, err)
	require.Len(t, after, 2)

	firstAfter, err := json.Marshal(after[t1.UnixMilli()])
	require.NoError(t, err)
	assert.Equal(t, firstBefore, firstAfter)
	assert.Equal(t, s1, after[t1.UnixMilli()])
	assert.Equal(t, s2, after[t2.UnixMilli()])
}

func TestStoreCorruptBucketLeftUntouched(t *testing.T) {
	var buf bytes.Buffer

	obs := &recordingObserver{}
	s := newTestStore(t, logger.NewWriterLogger(&buf), WithObserver(obs))
	ctx := context.Background()
	at := time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.Merge(ctx, "3-7-2025", at, models.Snapshot{"a": upRecord("a", 1)}))

	path := filepath.Join(s.dir, "3-7-2025.tgz")
	full, err := os.ReadFile(path)
	require.NoError(t, err)

	truncated := full[:len(full)/2]
	require.NoError(t, os.WriteFile(path, truncated, 0o644))

	err = s.Merge(ctx, "3-7-2025", at.Add(time.Minute), models.Snapshot{"a": upRecord("a", 2)})
	require.ErrorIs(t, err, ErrArchiveCorrupt)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, truncated, onDisk)
	assert.Equal(t, []string{"3-7-2025.tgz"}, dirNames(t, s.dir))
	assert.Equal(t, []string{MergeOK, MergeCorrupt}, obs.results)

	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), ErrArchiveCorrupt.Error())
}

func TestStoreCrashBeforeRenameKeepsOldFile(t *testing.T) {
	fsys := &faultFS{}
	s := newTestStore(t, logger.NewTestLogger(), WithFileSystem(fsys))
	ctx := context.Background()
	at := time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.Merge(ctx, "3-7-2025", at, models.Snapshot{"a": upRecord("a", 1)}))

	path := filepath.Join(s.dir, "3-7-2025.tgz")
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	fsys.failRename = true

	err = s.Merge(ctx, "3-7-2025", at.Add(time.Minute), models.Snapshot{"a": upRecord("a", 2)})
	require.ErrorIs(t, err, ErrArchiveWrite)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, onDisk)

	bucket, err := s.Load("3-7-2025")
	require.NoError(t, err)
	assert.Len(t, bucket, 1)

	// The temp file written before the failed rename was cleaned up.
	require.Len(t, fsys.temps, 2)
	assert.NoFileExists(t, fsys.temps[1])
	assert.Equal(t, []string{"3-7-2025.tgz"}, dirNames(t, s.dir))
}

func TestStoreTempWriteFailureCreatesNothing(t *testing.T) {
	fsys := &faultFS{failWrite: true}
	s := newTestStore(t, logger.NewTestLogger(), WithFileSystem(fsys))

	err := s.Merge(context.Background(), "3-7-2025", time.Now(), models.Snapshot{})
	require.ErrorIs(t, err, ErrArchiveWrite)
	require.ErrorIs(t, err, errInjected)
	assert.Empty(t, dirNames(t, s.dir))

	_, err = s.Read("3-7-2025")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreMergeCancelledContext(t *testing.T) {
	s := newTestStore(t, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Merge(ctx, "3-7-2025", time.Now(), models.Snapshot{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, dirNames(t, s.dir))
}

func TestStoreReadAndContentHash(t *testing.T) {
	s := newTestStore(t, logger.NewTestLogger())
	at := time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC)

	_, err := s.ContentHash("3-7-2025")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Merge(context.Background(), "3-7-2025", at, models.Snapshot{"a": upRecord("a", 5)}))

	raw, err := s.Read("03/07/2025")
	require.NoError(t, err)

	hash, err := s.ContentHash("2025-03-07")
	require.NoError(t, err)
	assert.Equal(t, hashutil.HexSHA256(raw), hash)
	assert.Len(t, hash, 64)

	_, err = s.Read("../secrets")
	require.ErrorIs(t, err, errInvalidDayKey)
}

func TestStoreListAndPrune(t *testing.T) {
	s := newTestStore(t, logger.NewTestLogger(), WithRetention(3))
	ctx := context.Background()
	now := time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		day := now.AddDate(0, 0, -i)
		require.NoError(t, s.Merge(ctx, s.Keyer().Key(day), day, models.Snapshot{}))
	}

	// Foreign files are ignored by List and Prune.
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, "notes.tgz"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, "03-01-2025.tgz"), []byte("x"), 0o644))

	keys, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"3-3-2025", "3-4-2025", "3-5-2025", "3-6-2025", "3-7-2025"}, keys)

	assert.True(t, s.Retained("3-5-2025", now))
	assert.False(t, s.Retained("3-4-2025", now))
	assert.False(t, s.Retained("garbage", now))

	removed, err := s.Prune(now)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	keys, err = s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"3-5-2025", "3-6-2025", "3-7-2025"}, keys)
	assert.FileExists(t, filepath.Join(s.dir, "notes.tgz"))
}

func TestStorePruneDisabled(t *testing.T) {
	s := newTestStore(t, logger.NewTestLogger())
	day := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Merge(context.Background(), s.Keyer().Key(day), day, models.Snapshot{}))

	removed, err := s.Prune(time.Now())
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.True(t, s.Retained("1-1-2020", time.Now()))
}
