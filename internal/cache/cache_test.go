package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/marquee/internal/omdb"
)

func sampleEntries() []Entry {
	rec := omdb.DetailRecord{
		ResultItem: omdb.ResultItem{ID: "tt1", Title: omdb.Some("Batman")},
		Plot:       omdb.Some("A vigilante."),
		Ratings:    []omdb.Rating{{Source: omdb.Some("IMDb"), Value: omdb.Some("7.5/10")}},
	}
	return []Entry{
		{
			Key: SearchKey("bat"),
			Items: []omdb.ResultItem{
				{ID: "tt1", Title: omdb.Some("Batman")},
				{ID: "tt2", Title: omdb.Some("Batman Returns")},
			},
			TotalCount: 2,
		},
		{Key: DetailKey("tt1"), Record: &rec},
		{Key: DetailKey("tt404")},
	}
}

func TestKeys_Normalize(t *testing.T) {
	assert.Equal(t, "search:the dark knight", SearchKey("  The   Dark\tKnight "))
	assert.Equal(t, "detail:tt0096895", DetailKey("TT0096895"))
}

func TestMemory_ReadWrite(t *testing.T) {
	m := NewMemory(time.Minute)
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, m.Write(sampleEntries()...))
	assert.Equal(t, 3, m.Len())

	got, ok := m.Read(SearchKey("BAT"))
	require.True(t, ok)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "tt2", got.Items[1].ID)
	assert.False(t, got.FetchedAt.IsZero(), "FetchedAt should be stamped on write")

	missing, ok := m.Read(DetailKey("tt404"))
	require.True(t, ok)
	assert.Nil(t, missing.Record)

	_, ok = m.Read(SearchKey("nothing"))
	assert.False(t, ok)
}

func TestMemory_EntriesAreImmutable(t *testing.T) {
	m := NewMemory(time.Minute)
	entries := sampleEntries()
	require.NoError(t, m.Write(entries...))

	entries[0].Items[0].ID = "mutated"
	got, _ := m.Read(SearchKey("bat"))
	assert.Equal(t, "tt1", got.Items[0].ID)

	got.Items[0].ID = "mutated again"
	again, _ := m.Read(SearchKey("bat"))
	assert.Equal(t, "tt1", again.Items[0].ID)
}

func TestMemory_Expires(t *testing.T) {
	m := NewMemory(20 * time.Millisecond)
	require.NoError(t, m.Write(Entry{Key: SearchKey("bat")}))

	assert.Eventually(t, func() bool {
		_, ok := m.Read(SearchKey("bat"))
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestMemory_SweeperPurgesAndStopsOnClose(t *testing.T) {
	m := NewMemory(10 * time.Millisecond)
	require.NoError(t, m.Write(Entry{Key: SearchKey("bat")}))
	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Close())
	select {
	case <-m.done:
	default:
		t.Fatal("sweeper still running after Close")
	}
	require.NoError(t, m.Close())
}

func TestMemory_NoTTLRunsNoSweeper(t *testing.T) {
	m := NewMemory(0)
	select {
	case <-m.done:
	default:
		t.Fatal("sweeper started without a ttl")
	}
	require.NoError(t, m.Write(Entry{Key: SearchKey("bat")}))
	_, ok := m.Read(SearchKey("bat"))
	assert.True(t, ok)
	require.NoError(t, m.Close())
	assert.Equal(t, 0, m.Len())
}

func TestMemory_RejectsEmptyKey(t *testing.T) {
	m := NewMemory(time.Minute)
	assert.ErrorIs(t, m.Write(Entry{}), ErrEmptyKey)
}

func openTestSQLite(t *testing.T, ttl time.Duration) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "cache.db"), ttl, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLite_ReadWriteAndReplace(t *testing.T) {
	s := openTestSQLite(t, time.Hour)
	require.NoError(t, s.Write(sampleEntries()...))

	got, ok := s.Read(DetailKey("tt1"))
	require.True(t, ok)
	require.NotNil(t, got.Record)
	assert.Equal(t, "A vigilante.", got.Record.Plot.Or(""))
	assert.False(t, got.Record.Director.Valid())
	require.Len(t, got.Record.Ratings, 1)

	require.NoError(t, s.Write(Entry{Key: SearchKey("bat"), Items: []omdb.ResultItem{{ID: "tt9"}}}))
	replaced, ok := s.Read(SearchKey("bat"))
	require.True(t, ok)
	require.Len(t, replaced.Items, 1)
	assert.Equal(t, "tt9", replaced.Items[0].ID)
}

func TestSQLite_TTLAndPurge(t *testing.T) {
	s := openTestSQLite(t, time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Write(
		Entry{Key: SearchKey("old"), FetchedAt: now.Add(-2 * time.Minute)},
		Entry{Key: SearchKey("new"), FetchedAt: now},
	))

	_, ok := s.Read(SearchKey("old"))
	assert.False(t, ok, "expired entry should miss")
	_, ok = s.Read(SearchKey("new"))
	assert.True(t, ok)

	n, err := s.Purge()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestSQLite_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	first, err := OpenSQLite(path, 0, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, first.Write(Entry{Key: DetailKey("tt1"), Record: &omdb.DetailRecord{ResultItem: omdb.ResultItem{ID: "tt1"}}}))
	require.NoError(t, first.Close())

	second, err := OpenSQLite(path, 0, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	got, ok := second.Read(DetailKey("tt1"))
	require.True(t, ok)
	assert.Equal(t, "tt1", got.Record.ID)
}
