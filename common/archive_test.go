package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"stockbot/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memObjects struct {
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memObjects) Put(_ context.Context, key string, body []byte, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.objects[key] = body
	m.types[key] = contentType
	return nil
}

func (m *memObjects) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.objects[key]
	return ok, nil
}

func TestArchiveDigest(t *testing.T) {
	ctx := context.Background()
	d := &types.Digest{ID: 7, Content: "# Weekly", StockCount: 4, CatalystCount: 2,
		GeneratedAt: time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC)}

	t.Run("writes markdown under a dated key", func(t *testing.T) {
		objects := newMemObjects()
		key, err := NewArchiver(objects).ArchiveDigest(ctx, d)
		require.NoError(t, err)
		assert.Equal(t, "digests/2025/03/15/7.md", key)
		assert.Contains(t, string(objects.objects[key]), "# Weekly")
		assert.Contains(t, objects.types[key], "text/markdown")
	})

	t.Run("existing objects are not overwritten", func(t *testing.T) {
		objects := newMemObjects()
		objects.objects["digests/2025/03/15/7.md"] = []byte("original")

		_, err := NewArchiver(objects).ArchiveDigest(ctx, d)
		require.NoError(t, err)
		assert.Equal(t, "original", string(objects.objects["digests/2025/03/15/7.md"]))
	})

	t.Run("upload errors are returned", func(t *testing.T) {
		objects := newMemObjects()
		objects.putErr = errors.New("access denied")
		_, err := NewArchiver(objects).ArchiveDigest(ctx, d)
		assert.ErrorContains(t, err, "access denied")
	})

	t.Run("nil archiver is a no-op", func(t *testing.T) {
		var a *Archiver
		key, err := a.ArchiveDigest(ctx, d)
		require.NoError(t, err)
		assert.Empty(t, key)
	})
}

func TestArchiveReport(t *testing.T) {
	objects := newMemObjects()
	at := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	key, err := NewArchiver(objects).ArchiveReport(context.Background(), "backfill", "run-1", at, map[string]int{"newPosts": 3})
	require.NoError(t, err)
	assert.Equal(t, "reports/backfill/2025/03/15/run-1.json", key)
	assert.JSONEq(t, `{"newPosts": 3}`, string(objects.objects[key]))
}
