package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aristath/petracker/internal/domain"
	testingpkg "github.com/aristath/petracker/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) Upload(ctx context.Context, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ObjectInfo
	for key, data := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	return out, nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	files := make(map[string][]byte)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		content, err := io.ReadAll(tr)
		require.NoError(t, err)
		files[hdr.Name] = content
	}
	return files
}

func TestCreateAndUploadBackup(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "backup")
	defer cleanup()
	_, err := db.Conn().Exec("INSERT INTO securities (symbol, name, created_at) VALUES ('ITC', 'ITC Ltd', 0)")
	require.NoError(t, err)

	store := newMemStore()
	svc := NewBackupService(store, db, "/nightly/", 30, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 10, 14, 10, 0, 5, 0, time.UTC) }

	key, err := svc.CreateAndUploadBackup(context.Background(), &domain.RunReport{RunID: "run-1", Date: "2026-10-14"})
	require.NoError(t, err)
	assert.Equal(t, "nightly/petracker-backup-2026-10-14-100005.tar.gz", key)

	files := readArchive(t, store.objects[key])
	require.Contains(t, files, "petracker.db")
	require.Contains(t, files, "backup-metadata.json")

	var meta BackupMetadata
	require.NoError(t, json.Unmarshal(files["backup-metadata.json"], &meta))
	assert.Equal(t, "run-1", meta.RunID)
	assert.Equal(t, int64(len(files["petracker.db"])), meta.SizeBytes)
	assert.True(t, strings.HasPrefix(meta.Checksum, "sha256:"))
}

func TestAfterRun_SkipsWhenNothingWritten(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "backup_skip")
	defer cleanup()

	store := newMemStore()
	svc := NewBackupService(store, db, "", 30, zerolog.Nop())

	require.NoError(t, svc.AfterRun(context.Background(), &domain.RunReport{RowsWritten: 0}))
	assert.Empty(t, store.objects)

	require.NoError(t, svc.AfterRun(context.Background(), &domain.RunReport{RowsWritten: 2}))
	assert.Len(t, store.objects, 1)
}

func TestRotateOldBackups(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	for _, age := range []int{0, 1, 2, 40, 50, 60} {
		ts := now.AddDate(0, 0, -age).Format(archiveTimestamp)
		store.objects["pe/"+archivePrefix+ts+archiveSuffix] = []byte("x")
	}
	store.objects["pe/unrelated.txt"] = []byte("keep")

	svc := NewBackupService(store, nil, "pe", 30, zerolog.Nop())
	svc.now = func() time.Time { return now }

	backups, err := svc.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 6)
	assert.True(t, backups[0].Timestamp.After(backups[1].Timestamp))

	require.NoError(t, svc.RotateOldBackups(context.Background()))
	assert.Len(t, store.deleted, 3)
	assert.Len(t, store.objects, 4)
}

func TestRotateOldBackups_KeepsMinimum(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	for _, age := range []int{100, 200, 300} {
		ts := now.AddDate(0, 0, -age).Format(archiveTimestamp)
		store.objects[archivePrefix+ts+archiveSuffix] = []byte("x")
	}

	svc := NewBackupService(store, nil, "", 7, zerolog.Nop())
	svc.now = func() time.Time { return now }

	require.NoError(t, svc.RotateOldBackups(context.Background()))
	assert.Empty(t, store.deleted)
}
