package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openwow/wowgo/internal/model"
)

// TemplateRepository loads creature templates and movement overrides.
type TemplateRepository struct {
	pool *pgxpool.Pool
}

// NewTemplateRepository creates a template repository.
func NewTemplateRepository(pool *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{pool: pool}
}

// LoadStore loads every template, its model list and the movement overrides
// into a ready TemplateStore.
func (r *TemplateRepository) LoadStore(ctx context.Context) (*model.TemplateStore, error) {
	templates, err := r.loadTemplates(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.loadModels(ctx, templates); err != nil {
		return nil, err
	}

	list := make([]*model.CreatureTemplate, 0, len(templates))
	for _, t := range templates {
		list = append(list, t)
	}
	store := model.NewTemplateStore(list)

	if err := r.loadMovementOverrides(ctx, store); err != nil {
		return nil, err
	}
	return store, nil
}

func (r *TemplateRepository) loadTemplates(ctx context.Context) (map[uint32]*model.CreatureTemplate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT entry, name, title, icon_name, type, family, rank,
		       min_level, max_level, faction, npc_flags, unit_flags, unit_flags2,
		       type_flags, scale, speed_walk, speed_run,
		       base_health, health_per_level, base_mana, mana_per_level,
		       resistances, base_attack_time, ranged_attack_time, damage_school,
		       min_damage, max_damage, movement_id, movement_type, spells,
		       loot_id, skin_loot_id, vendor_id, gossip_menu_id, ai_name,
		       static_flags1, static_flags2, static_flags3, static_flags4, static_flags5,
		       difficulty_entry1, difficulty_entry2, difficulty_entry3
		FROM creature_template
	`)
	if err != nil {
		return nil, fmt.Errorf("loading creature templates: %w", err)
	}
	defer rows.Close()

	templates := make(map[uint32]*model.CreatureTemplate, 1024)
	for rows.Next() {
		var (
			t           model.CreatureTemplate
			typ, rank   int16
			school      int16
			moveType    int16
			resistances []int64
			spells      []int64
		)
		if err := rows.Scan(
			&t.Entry, &t.Name, &t.Title, &t.IconName, &typ, &t.Family, &rank,
			&t.MinLevel, &t.MaxLevel, &t.Faction, &t.NpcFlags, &t.UnitFlags, &t.UnitFlags2,
			&t.TypeFlags, &t.Scale, &t.SpeedWalk, &t.SpeedRun,
			&t.BaseHealth, &t.HealthPerLevel, &t.BaseMana, &t.ManaPerLevel,
			&resistances, &t.BaseAttackTime, &t.RangedAttackTime, &school,
			&t.MinDamage, &t.MaxDamage, &t.MovementTemplateID, &moveType, &spells,
			&t.LootID, &t.SkinLootID, &t.VendorID, &t.GossipMenuID, &t.AIName,
			&t.StaticFlags[0], &t.StaticFlags[1], &t.StaticFlags[2], &t.StaticFlags[3], &t.StaticFlags[4],
			&t.DifficultyEntry[0], &t.DifficultyEntry[1], &t.DifficultyEntry[2],
		); err != nil {
			return nil, fmt.Errorf("scanning creature template: %w", err)
		}
		t.Type = model.CreatureType(typ)
		t.Rank = model.CreatureRank(rank)
		t.DamageSchool = uint8(school)
		t.MovementType = model.MovementType(moveType)
		for i := 0; i < len(t.Resistances) && i < len(resistances); i++ {
			t.Resistances[i] = int32(resistances[i])
		}
		for i := 0; i < len(t.Spells) && i < len(spells); i++ {
			t.Spells[i] = uint32(spells[i])
		}
		tt := t
		templates[t.Entry] = &tt
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating creature templates: %w", err)
	}
	return templates, nil
}

func (r *TemplateRepository) loadModels(ctx context.Context, templates map[uint32]*model.CreatureTemplate) error {
	rows, err := r.pool.Query(ctx, `
		SELECT entry, display_id, scale, probability
		FROM creature_template_model
		ORDER BY entry, idx
	`)
	if err != nil {
		return fmt.Errorf("loading template models: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			entry uint32
			m     model.CreatureModel
		)
		if err := rows.Scan(&entry, &m.DisplayID, &m.Scale, &m.Probability); err != nil {
			return fmt.Errorf("scanning template model: %w", err)
		}
		if t, ok := templates[entry]; ok {
			t.Models = append(t.Models, m)
		}
	}
	return rows.Err()
}

func (r *TemplateRepository) loadMovementOverrides(ctx context.Context, store *model.TemplateStore) error {
	rows, err := r.pool.Query(ctx, `
		SELECT movement_id, walk_speed, run_speed
		FROM movement_info_override
	`)
	if err != nil {
		return fmt.Errorf("loading movement overrides: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id uint32
			o  model.MovementOverride
		)
		if err := rows.Scan(&id, &o.WalkSpeed, &o.RunSpeed); err != nil {
			return fmt.Errorf("scanning movement override: %w", err)
		}
		store.SetMovementOverride(id, o)
	}
	return rows.Err()
}

// scanDuration converts a seconds column into a time.Duration.
func scanDuration(secs int64) time.Duration {
	return time.Duration(secs) * time.Second
}
