package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatecrm/internal/models"
)

func sampleCollections() Collections {
	cols := emptyCollections()
	cols.Leads = append(cols.Leads, models.Lead{ID: 1, Name: "Aidos", Phone: "+7700"})
	cols.Team = append(cols.Team, models.TeamMember{ID: 5, Name: "Dana"})
	return cols
}

func TestCacheReadWrite(t *testing.T) {
	c := NewCache(t.TempDir(), 0)

	_, ok := c.Read()
	assert.False(t, ok, "empty cache must miss")

	c.Write(sampleCollections())
	got, ok := c.Read()
	require.True(t, ok)
	assert.Len(t, got.Leads, 1)
	assert.Equal(t, "Aidos", got.Leads[0].Name)
}

func TestCacheTTLBoundary(t *testing.T) {
	c := NewCache(t.TempDir(), 5*time.Minute)

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Write(sampleCollections())

	// за миг до границы снапшот ещё жив
	c.now = func() time.Time { return base.Add(5*time.Minute - time.Millisecond) }
	_, ok := c.Read()
	assert.True(t, ok)

	// ровно TTL — уже промах
	c.now = func() time.Time { return base.Add(5 * time.Minute) }
	_, ok = c.Read()
	assert.False(t, ok)
}

func TestCacheInvalidate(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, 0)
	c.Write(sampleCollections())

	mirror := filepath.Join(dir, "cache.json")
	_, err := os.Stat(mirror)
	require.NoError(t, err, "mirror must exist after write")

	c.Invalidate()
	_, ok := c.Read()
	assert.False(t, ok)
	_, err = os.Stat(mirror)
	assert.True(t, os.IsNotExist(err), "invalidate must remove the mirror")
}

func TestCacheMirrorSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	NewCache(dir, 0).Write(sampleCollections())

	// новый инстанс того же каталога — рестарт процесса
	c := NewCache(dir, 0)
	got, ok := c.Read()
	require.True(t, ok)
	assert.Equal(t, 1, len(got.Leads))
	assert.Equal(t, 1, len(got.Team))
}

func TestCacheStaleMirrorIgnored(t *testing.T) {
	dir := t.TempDir()

	old := NewCache(dir, 5*time.Minute)
	old.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old.Write(sampleCollections())

	c := NewCache(dir, 5*time.Minute)
	_, ok := c.Read()
	assert.False(t, ok, "hour-old mirror must not resurrect")
}

func TestCacheCorruptMirrorIgnored(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cache.json"), []byte("{not json"), 0o644))

	c := NewCache(dir, 0)
	_, ok := c.Read()
	assert.False(t, ok)
}
