package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func openStore(t *testing.T) (*PageStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache", "pages.db")
	s, err := NewPageStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestPageStoreSaveLoad(t *testing.T) {
	s, _ := openStore(t)
	items := []entry{{"1", "Alien"}, {"2", "Aliens"}}

	require.NoError(t, s.Save("scope", 0, 2, 40, items))

	var got []entry
	total, _, ok := s.Load("scope", 0, 2, &got)
	require.True(t, ok)
	assert.Equal(t, 40, total)
	assert.Equal(t, items, got)

	_, _, ok = s.Load("scope", 2, 2, &got)
	assert.False(t, ok)
}

func TestPageStorePersistsAcrossReopen(t *testing.T) {
	s, path := openStore(t)
	require.NoError(t, s.Save("scope", 100, 100, 250, []entry{{"x", "Brazil"}}))
	require.NoError(t, s.Close())

	reopened, err := NewPageStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	var got []entry
	total, _, ok := reopened.Load("scope", 100, 100, &got)
	require.True(t, ok)
	assert.Equal(t, 250, total)
	assert.Equal(t, "Brazil", got[0].Title)
}

func TestPageStoreAge(t *testing.T) {
	s, _ := openStore(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	require.NoError(t, s.Save("scope", 0, 1, 1, []entry{{"1", "Heat"}}))

	s.now = func() time.Time { return base.Add(90 * time.Minute) }
	var got []entry
	_, age, ok := s.Load("scope", 0, 1, &got)
	require.True(t, ok)
	assert.Equal(t, 90*time.Minute, age)
}

func TestPageStoreInvalidateScope(t *testing.T) {
	s, path := openStore(t)
	require.NoError(t, s.Save("a", 0, 10, 10, []entry{}))
	require.NoError(t, s.Save("a", 10, 10, 10, []entry{}))
	require.NoError(t, s.Save("ab", 0, 10, 10, []entry{}))

	require.NoError(t, s.InvalidateScope("a"))

	var got []entry
	_, _, ok := s.Load("a", 0, 10, &got)
	assert.False(t, ok)
	_, _, ok = s.Load("a", 10, 10, &got)
	assert.False(t, ok)
	_, _, ok = s.Load("ab", 0, 10, &got)
	assert.True(t, ok, "scope prefix must not match longer scope names")

	// the deletion reached disk, not just the memory layer
	require.NoError(t, s.Close())
	reopened, err := NewPageStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	_, _, ok = reopened.Load("a", 0, 10, &got)
	assert.False(t, ok)
}

func TestPageStoreInvalidateServer(t *testing.T) {
	s, _ := openStore(t)
	require.NoError(t, s.Save(Scope("http://a", "q=1"), 0, 10, 10, []entry{}))
	require.NoError(t, s.Save(Scope("http://a", "q=2"), 0, 10, 10, []entry{}))
	require.NoError(t, s.Save(Scope("http://b", "q=1"), 0, 10, 10, []entry{}))

	require.NoError(t, s.InvalidateServer("http://A/"))

	var got []entry
	_, _, ok := s.Load(Scope("http://a", "q=1"), 0, 10, &got)
	assert.False(t, ok)
	_, _, ok = s.Load(Scope("http://a", "q=2"), 0, 10, &got)
	assert.False(t, ok)
	_, _, ok = s.Load(Scope("http://b", "q=1"), 0, 10, &got)
	assert.True(t, ok)
}

func TestPageStoreInvalidateAll(t *testing.T) {
	s, _ := openStore(t)
	require.NoError(t, s.Save("a", 0, 10, 10, []entry{}))
	require.NoError(t, s.Save("b", 0, 10, 10, []entry{}))

	require.NoError(t, s.InvalidateAll())

	var got []entry
	_, _, ok := s.Load("b", 0, 10, &got)
	assert.False(t, ok)
}

func TestMemoryOnlyStore(t *testing.T) {
	s, err := NewPageStore("")
	require.NoError(t, err)
	require.NoError(t, s.Save("scope", 0, 1, 1, []entry{{"1", "Ran"}}))

	var got []entry
	_, _, ok := s.Load("scope", 0, 1, &got)
	assert.True(t, ok)
	assert.NoError(t, s.Close())
}

func TestScope(t *testing.T) {
	a := Scope("http://Host:8080/", "query=alien")
	b := Scope("http://host:8080", "query=alien")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, Scope("http://other:8080", "query=alien"))
}
