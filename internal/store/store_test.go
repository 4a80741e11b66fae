package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticefx/motion/internal/model"
	"github.com/latticefx/motion/internal/particles"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "checkpoints.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleCheckpoint(frame int) particles.Checkpoint {
	return particles.Checkpoint{
		Frame: frame,
		Particles: []model.Particle{
			{ID: 1, Position: model.Vec2{X: 10, Y: 20}, Velocity: model.Vec2{X: 1, Y: -2},
				Age: 3, Lifetime: 60, Size: 4, Color: model.Color{R: 1, A: 1}},
			{ID: 2, Position: model.Vec2{X: -5, Y: 0.5}, Age: 1, Lifetime: 45, Size: 2,
				Generation: 1},
		},
		RNGState: 0xfedcba9876543210, // high bit set, must round-trip
		NextID:   3,
		EmitAcc:  0.25,
	}
}

func TestOpen_AppliesPragmas(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1")) // NORMAL
}

func TestOpen_IsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoints.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.PutCheckpoint(context.Background(), "h", sampleCheckpoint(30)))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	_, ok, err := s2.NearestCheckpoint(context.Background(), "h", 30)
	require.NoError(t, err)
	assert.True(t, ok, "rows survive reopen")
}

func TestCheckpointRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := sampleCheckpoint(30)
	require.NoError(t, s.PutCheckpoint(ctx, "h", want))

	got, ok, err := s.NearestCheckpoint(ctx, "h", 30)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestNearestCheckpoint_PicksLargestAtOrBelow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, f := range []int{30, 60, 90} {
		require.NoError(t, s.PutCheckpoint(ctx, "h", sampleCheckpoint(f)))
	}

	got, ok, err := s.NearestCheckpoint(ctx, "h", 75)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 60, got.Frame)

	got, ok, err = s.NearestCheckpoint(ctx, "h", 90)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 90, got.Frame)

	_, ok, err = s.NearestCheckpoint(ctx, "h", 10)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNearestCheckpoint_IsolatesConfigHashes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutCheckpoint(ctx, "ha", sampleCheckpoint(30)))

	_, ok, err := s.NearestCheckpoint(ctx, "hb", 100)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutCheckpoint_DuplicateIsIgnored(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := sampleCheckpoint(30)
	require.NoError(t, s.PutCheckpoint(ctx, "h", first))

	// A second write at the same key is a no-op, not an overwrite.
	second := sampleCheckpoint(30)
	second.NextID = 999
	require.NoError(t, s.PutCheckpoint(ctx, "h", second))

	got, ok, err := s.NearestCheckpoint(ctx, "h", 30)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.NextID, got.NextID)
}

func TestEmptyParticleSetRoundTrips(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cp := particles.Checkpoint{Frame: 30, Particles: []model.Particle{}, RNGState: 7, NextID: 0}
	require.NoError(t, s.PutCheckpoint(ctx, "h", cp))

	got, ok, err := s.NearestCheckpoint(ctx, "h", 30)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, got.Particles)
}

func TestListCheckpoints(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, f := range []int{30, 60} {
		require.NoError(t, s.PutCheckpoint(ctx, "ha", sampleCheckpoint(f)))
	}
	require.NoError(t, s.PutCheckpoint(ctx, "hb", sampleCheckpoint(90)))

	list, err := s.ListCheckpoints(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "ha", list[0].ConfigHash)
	assert.Equal(t, 2, list[0].Count)
	assert.Equal(t, 30, list[0].MinFrame)
	assert.Equal(t, 60, list[0].MaxFrame)
	assert.Equal(t, "hb", list[1].ConfigHash)
	assert.Equal(t, 1, list[1].Count)
}

func TestPruneCheckpoints(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, f := range []int{30, 60} {
		require.NoError(t, s.PutCheckpoint(ctx, "ha", sampleCheckpoint(f)))
	}
	require.NoError(t, s.PutCheckpoint(ctx, "hb", sampleCheckpoint(90)))

	n, err := s.PruneCheckpoints(ctx, "ha")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, ok, err := s.NearestCheckpoint(ctx, "ha", 100)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.NearestCheckpoint(ctx, "hb", 100)
	require.NoError(t, err)
	assert.True(t, ok, "other hashes untouched")
}

func TestStoreBacksParticleSystem(t *testing.T) {
	s := openTestStore(t)

	cfg := &model.ParticleSystemConfig{
		Seed: 11,
		Emitter: model.EmitterConfig{
			Rate: 1, Speed: 3, Spread: 45,
			Position: model.Vec2{X: 50, Y: 50},
		},
		Forces:   []model.ForceField{{Kind: model.ForceGravity, Strength: 0.1}},
		Lifetime: model.LifetimeConfig{Frames: 40},
	}

	direct, err := particles.NewSystem("emitter", cfg, nil)
	require.NoError(t, err)
	want, err := direct.EvaluateAtFrame(100)
	require.NoError(t, err)

	// Warm the durable cache, then evaluate with a fresh system that can
	// only resume from stored rows.
	warm, err := particles.NewSystem("emitter", cfg, s)
	require.NoError(t, err)
	_, err = warm.EvaluateAtFrame(60)
	require.NoError(t, err)

	resumed, err := particles.NewSystem("emitter", cfg, s)
	require.NoError(t, err)
	got, err := resumed.EvaluateAtFrame(100)
	require.NoError(t, err)

	assert.Equal(t, want.Particles, got.Particles)
}
