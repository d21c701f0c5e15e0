package names

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s, err := OpenDB(db)
	require.NoError(t, err)
	return s
}

func intp(n int) *int { return &n }

func TestCommonality(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddRank(ctx, "Jane", KindFirst, "census-1990", intp(120)))
	require.NoError(t, s.AddRank(ctx, "jane", KindFirst, "census-2000", intp(95)))
	require.NoError(t, s.AddRank(ctx, "jane", KindFirst, "ssa", intp(88)))
	// a null rank means the source lists the name without ranking it
	require.NoError(t, s.AddRank(ctx, "jane", KindFirst, "voter-rolls", nil))

	n, err := s.Commonality(ctx, "JANE", KindFirst)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = s.Commonality(ctx, "jane", KindLast)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = s.Commonality(ctx, "", KindFirst)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCheckName(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for _, src := range []string{"a", "b", "c"} {
		require.NoError(t, s.AddRank(ctx, "jane", KindFirst, src, intp(1)))
	}
	// two sources are not enough
	for _, src := range []string{"a", "b"} {
		require.NoError(t, s.AddRank(ctx, "doe", KindLast, src, intp(1)))
	}

	check, err := s.CheckName(ctx, Parsed{First: "Jane", Last: "Doe"})
	require.NoError(t, err)
	assert.True(t, check.FirstReal)
	assert.False(t, check.LastReal)
}
