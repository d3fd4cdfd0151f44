package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RespawnRepository persists the per-map respawn-time table. Implements the
// world.RespawnStore contract.
type RespawnRepository struct {
	pool *pgxpool.Pool
}

// NewRespawnRepository creates a respawn repository.
func NewRespawnRepository(pool *pgxpool.Pool) *RespawnRepository {
	return &RespawnRepository{pool: pool}
}

// Save upserts a respawn deadline. The stored deadline never moves backwards:
// the upsert keeps the later of the existing and new values.
func (r *RespawnRepository) Save(ctx context.Context, mapID, instanceID uint32, spawnID uint64, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO respawn (map_id, instance_id, spawn_id, respawn_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (map_id, instance_id, spawn_id)
		DO UPDATE SET respawn_at = GREATEST(respawn.respawn_at, EXCLUDED.respawn_at)
	`, mapID, instanceID, spawnID, at)
	if err != nil {
		return fmt.Errorf("saving respawn time for spawn %d: %w", spawnID, err)
	}
	return nil
}

// Delete removes a deadline after a successful respawn.
func (r *RespawnRepository) Delete(ctx context.Context, mapID, instanceID uint32, spawnID uint64) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM respawn
		WHERE map_id = $1 AND instance_id = $2 AND spawn_id = $3
	`, mapID, instanceID, spawnID)
	if err != nil {
		return fmt.Errorf("deleting respawn time for spawn %d: %w", spawnID, err)
	}
	return nil
}

// LoadByMap restores the deadline table for one map instance at startup.
func (r *RespawnRepository) LoadByMap(ctx context.Context, mapID, instanceID uint32) (map[uint64]time.Time, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT spawn_id, respawn_at
		FROM respawn
		WHERE map_id = $1 AND instance_id = $2
	`, mapID, instanceID)
	if err != nil {
		return nil, fmt.Errorf("loading respawn times for map %d: %w", mapID, err)
	}
	defer rows.Close()

	times := make(map[uint64]time.Time)
	for rows.Next() {
		var (
			spawnID uint64
			at      time.Time
		)
		if err := rows.Scan(&spawnID, &at); err != nil {
			return nil, fmt.Errorf("scanning respawn time: %w", err)
		}
		times[spawnID] = at
	}
	return times, rows.Err()
}
