package stats

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silt-io/silt/internal/fileio"
	"github.com/silt-io/silt/internal/pathfactory"
)

func TestHandler_WriteAndDelete(t *testing.T) {
	fio := fileio.NewMemory()
	paths := pathfactory.New("/warehouse/t")
	h := NewHandler(fio, paths)
	ctx := context.Background()

	name, err := h.WriteStats(ctx, []byte(`{"colStats":{}}`))
	require.NoError(t, err)

	ok, err := fio.Exists(ctx, paths.StatsPath(name))
	require.NoError(t, err)
	assert.True(t, ok)

	h.DeleteStats(ctx, name)
	ok, err = fio.Exists(ctx, paths.StatsPath(name))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandler_DeleteMissingIsQuiet(t *testing.T) {
	h := NewHandler(fileio.NewMemory(), pathfactory.New("/warehouse/t"))
	// Must not panic or fail; a missing statistics file was already cleaned.
	h.DeleteStats(context.Background(), "stats-never-written")
}
