package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/latticefx/motion/internal/model"
	"github.com/latticefx/motion/internal/particles"
)

// Store implements particles.CheckpointCache.
var _ particles.CheckpointCache = (*Store)(nil)

// PutCheckpoint inserts a checkpoint row.
// Uses ON CONFLICT DO NOTHING for idempotency: two writers computing the
// same (config_hash, frame) produce identical state, so the duplicate is
// silently ignored. Other constraint violations still return errors.
//
// The rng_state and next_id columns are decimal uint64 strings; SQLite
// INTEGER is signed and would mangle the high bit.
func (s *Store) PutCheckpoint(ctx context.Context, hash string, cp particles.Checkpoint) error {
	blob, err := json.Marshal(cp.Particles)
	if err != nil {
		return fmt.Errorf("write checkpoint: marshal particles: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints
		(config_hash, frame, rng_state, next_id, emit_acc, particles)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(config_hash, frame) DO NOTHING
	`,
		hash,
		cp.Frame,
		strconv.FormatUint(cp.RNGState, 10),
		strconv.FormatUint(cp.NextID, 10),
		cp.EmitAcc,
		blob,
	)
	if err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}

	return nil
}

// NearestCheckpoint returns the checkpoint with the largest frame at or
// below the given frame, or ok=false when the hash has no usable rows.
func (s *Store) NearestCheckpoint(ctx context.Context, hash string, frame int) (particles.Checkpoint, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT frame, rng_state, next_id, emit_acc, particles
		FROM checkpoints
		WHERE config_hash = ? AND frame <= ?
		ORDER BY frame DESC
		LIMIT 1
	`, hash, frame)

	var (
		cp       particles.Checkpoint
		rngState string
		nextID   string
		blob     []byte
	)
	err := row.Scan(&cp.Frame, &rngState, &nextID, &cp.EmitAcc, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return particles.Checkpoint{}, false, nil
	}
	if err != nil {
		return particles.Checkpoint{}, false, fmt.Errorf("read checkpoint: %w", err)
	}

	if cp.RNGState, err = strconv.ParseUint(rngState, 10, 64); err != nil {
		return particles.Checkpoint{}, false, fmt.Errorf("read checkpoint: rng_state: %w", err)
	}
	if cp.NextID, err = strconv.ParseUint(nextID, 10, 64); err != nil {
		return particles.Checkpoint{}, false, fmt.Errorf("read checkpoint: next_id: %w", err)
	}
	cp.Particles = []model.Particle{}
	if err := json.Unmarshal(blob, &cp.Particles); err != nil {
		return particles.Checkpoint{}, false, fmt.Errorf("read checkpoint: particles: %w", err)
	}

	return cp, true, nil
}

// Put implements particles.CheckpointCache.
func (s *Store) Put(hash string, cp particles.Checkpoint) error {
	return s.PutCheckpoint(context.Background(), hash, cp)
}

// Nearest implements particles.CheckpointCache.
func (s *Store) Nearest(hash string, frame int) (particles.Checkpoint, bool, error) {
	return s.NearestCheckpoint(context.Background(), hash, frame)
}

// CheckpointSummary describes the stored rows for one config hash.
type CheckpointSummary struct {
	ConfigHash string `json:"config_hash"`
	Count      int    `json:"count"`
	MinFrame   int    `json:"min_frame"`
	MaxFrame   int    `json:"max_frame"`
	Bytes      int64  `json:"bytes"`
}

// ListCheckpoints summarizes stored checkpoints grouped by config hash,
// ordered by hash for stable output.
func (s *Store) ListCheckpoints(ctx context.Context) ([]CheckpointSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT config_hash, COUNT(*), MIN(frame), MAX(frame), SUM(LENGTH(particles))
		FROM checkpoints
		GROUP BY config_hash
		ORDER BY config_hash
	`)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []CheckpointSummary
	for rows.Next() {
		var cs CheckpointSummary
		if err := rows.Scan(&cs.ConfigHash, &cs.Count, &cs.MinFrame, &cs.MaxFrame, &cs.Bytes); err != nil {
			return nil, fmt.Errorf("list checkpoints: scan: %w", err)
		}
		out = append(out, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	return out, nil
}

// PruneCheckpoints deletes every row for the given config hash and returns
// the number of rows removed. Used when a project's particle configs change
// and their old checkpoints become unreachable.
func (s *Store) PruneCheckpoints(ctx context.Context, hash string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE config_hash = ?`, hash)
	if err != nil {
		return 0, fmt.Errorf("prune checkpoints: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune checkpoints: rows affected: %w", err)
	}
	return n, nil
}
