package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openwow/wowgo/internal/model"
)

// SpawnRepository handles persisted spawn records, spawn groups, static-flag
// overrides and linked respawns.
type SpawnRepository struct {
	pool *pgxpool.Pool
}

// NewSpawnRepository creates a spawn repository.
func NewSpawnRepository(pool *pgxpool.Pool) *SpawnRepository {
	return &SpawnRepository{pool: pool}
}

// LoadByMap loads every spawn record for a map, including static-flag
// overrides for the given difficulty.
func (r *SpawnRepository) LoadByMap(ctx context.Context, mapID uint32, difficulty uint8) ([]*model.CreatureData, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT spawn_id, entry, map_id, position_x, position_y, position_z, orientation,
		       phase_mask, display_id, equipment_id, spawn_secs, wander_dist,
		       cur_health, cur_mana, movement_type, npc_flags, unit_flags, dynamic_flags,
		       spawn_group_id, script_id
		FROM creature
		WHERE map_id = $1
		ORDER BY spawn_id
	`, mapID)
	if err != nil {
		return nil, fmt.Errorf("loading spawns for map %d: %w", mapID, err)
	}
	defer rows.Close()

	spawns := make([]*model.CreatureData, 0, 256)
	byID := make(map[uint64]*model.CreatureData)
	for rows.Next() {
		var (
			d         model.CreatureData
			spawnSecs int64
			moveType  int16
		)
		if err := rows.Scan(
			&d.SpawnID, &d.Entry, &d.MapID,
			&d.SpawnPoint.X, &d.SpawnPoint.Y, &d.SpawnPoint.Z, &d.SpawnPoint.O,
			&d.PhaseMask, &d.DisplayID, &d.EquipmentID, &spawnSecs, &d.WanderDist,
			&d.CurHealth, &d.CurMana, &moveType, &d.NpcFlags, &d.UnitFlags, &d.DynamicFlags,
			&d.SpawnGroupID, &d.ScriptID,
		); err != nil {
			return nil, fmt.Errorf("scanning spawn row: %w", err)
		}
		d.SpawnTimeSecs = scanDuration(spawnSecs)
		d.MovementType = model.MovementType(moveType)
		dd := d
		spawns = append(spawns, &dd)
		byID[dd.SpawnID] = &dd
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating spawn rows: %w", err)
	}

	if err := r.loadStaticFlagOverrides(ctx, byID, difficulty); err != nil {
		return nil, err
	}
	return spawns, nil
}

func (r *SpawnRepository) loadStaticFlagOverrides(ctx context.Context, spawns map[uint64]*model.CreatureData, difficulty uint8) error {
	rows, err := r.pool.Query(ctx, `
		SELECT spawn_id, static_flags1, static_flags2, static_flags3, static_flags4, static_flags5
		FROM creature_static_flag_override
		WHERE difficulty = $1
	`, difficulty)
	if err != nil {
		return fmt.Errorf("loading static flag overrides: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			spawnID  uint64
			override [5]*uint32
		)
		if err := rows.Scan(&spawnID, &override[0], &override[1], &override[2], &override[3], &override[4]); err != nil {
			return fmt.Errorf("scanning static flag override: %w", err)
		}
		if d, ok := spawns[spawnID]; ok {
			d.StaticFlagOverrides = override
		}
	}
	return rows.Err()
}

// LoadSpawnGroups loads every spawn-group template.
func (r *SpawnRepository) LoadSpawnGroups(ctx context.Context) ([]*model.SpawnGroupTemplate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT group_id, name, flags
		FROM spawn_group_template
	`)
	if err != nil {
		return nil, fmt.Errorf("loading spawn groups: %w", err)
	}
	defer rows.Close()

	groups := make([]*model.SpawnGroupTemplate, 0, 32)
	for rows.Next() {
		var g model.SpawnGroupTemplate
		if err := rows.Scan(&g.GroupID, &g.Name, &g.Flags); err != nil {
			return nil, fmt.Errorf("scanning spawn group: %w", err)
		}
		gg := g
		groups = append(groups, &gg)
	}
	return groups, rows.Err()
}

// LoadLinkedRespawns loads the slave-to-master respawn links.
func (r *SpawnRepository) LoadLinkedRespawns(ctx context.Context) (map[uint64]uint64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT spawn_id, linked_spawn_id
		FROM linked_respawn
	`)
	if err != nil {
		return nil, fmt.Errorf("loading linked respawns: %w", err)
	}
	defer rows.Close()

	links := make(map[uint64]uint64)
	for rows.Next() {
		var slave, master uint64
		if err := rows.Scan(&slave, &master); err != nil {
			return nil, fmt.Errorf("scanning linked respawn: %w", err)
		}
		links[slave] = master
	}
	return links, rows.Err()
}

// Save upserts a spawn record. A zero spawn id allocates a new one; the
// caller is expected to have normalized template-default overrides to
// zero/NULL already (see Creature.BuildSaveData).
func (r *SpawnRepository) Save(ctx context.Context, d *model.CreatureData) (uint64, error) {
	if d.SpawnID == 0 {
		var id uint64
		err := r.pool.QueryRow(ctx, `
			INSERT INTO creature
				(entry, map_id, position_x, position_y, position_z, orientation,
				 phase_mask, display_id, equipment_id, spawn_secs, wander_dist,
				 cur_health, cur_mana, movement_type, npc_flags, unit_flags, dynamic_flags,
				 spawn_group_id, script_id)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
			RETURNING spawn_id
		`,
			d.Entry, d.MapID, d.SpawnPoint.X, d.SpawnPoint.Y, d.SpawnPoint.Z, d.SpawnPoint.O,
			d.PhaseMask, d.DisplayID, d.EquipmentID, int64(d.SpawnTimeSecs.Seconds()), d.WanderDist,
			d.CurHealth, d.CurMana, int16(d.MovementType), d.NpcFlags, d.UnitFlags, d.DynamicFlags,
			d.SpawnGroupID, d.ScriptID,
		).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("inserting spawn for entry %d: %w", d.Entry, err)
		}
		return id, nil
	}

	_, err := r.pool.Exec(ctx, `
		UPDATE creature SET
			entry = $2, map_id = $3,
			position_x = $4, position_y = $5, position_z = $6, orientation = $7,
			phase_mask = $8, display_id = $9, equipment_id = $10,
			spawn_secs = $11, wander_dist = $12, cur_health = $13, cur_mana = $14,
			movement_type = $15, npc_flags = $16, unit_flags = $17, dynamic_flags = $18,
			spawn_group_id = $19, script_id = $20
		WHERE spawn_id = $1
	`,
		d.SpawnID, d.Entry, d.MapID,
		d.SpawnPoint.X, d.SpawnPoint.Y, d.SpawnPoint.Z, d.SpawnPoint.O,
		d.PhaseMask, d.DisplayID, d.EquipmentID,
		int64(d.SpawnTimeSecs.Seconds()), d.WanderDist, d.CurHealth, d.CurMana,
		int16(d.MovementType), d.NpcFlags, d.UnitFlags, d.DynamicFlags,
		d.SpawnGroupID, d.ScriptID,
	)
	if err != nil {
		return 0, fmt.Errorf("updating spawn %d: %w", d.SpawnID, err)
	}
	return d.SpawnID, nil
}

// Delete removes a spawn record.
func (r *SpawnRepository) Delete(ctx context.Context, spawnID uint64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM creature WHERE spawn_id = $1`, spawnID); err != nil {
		return fmt.Errorf("deleting spawn %d: %w", spawnID, err)
	}
	return nil
}
