package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openwow/wowgo/internal/model"
)

// FactionRepository loads faction templates.
type FactionRepository struct {
	pool *pgxpool.Pool
}

// NewFactionRepository creates a faction repository.
func NewFactionRepository(pool *pgxpool.Pool) *FactionRepository {
	return &FactionRepository{pool: pool}
}

// LoadStore loads every faction template into a ready FactionStore.
func (r *FactionRepository) LoadStore(ctx context.Context) (*model.FactionStore, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, faction, flags, own_mask, friend_mask, enemy_mask, enemies, friends
		FROM faction_template
	`)
	if err != nil {
		return nil, fmt.Errorf("loading faction templates: %w", err)
	}
	defer rows.Close()

	templates := make([]*model.FactionTemplate, 0, 512)
	for rows.Next() {
		var (
			t                model.FactionTemplate
			enemies, friends []int64
		)
		if err := rows.Scan(&t.ID, &t.Faction, &t.Flags, &t.OwnMask, &t.FriendMask, &t.EnemyMask, &enemies, &friends); err != nil {
			return nil, fmt.Errorf("scanning faction template: %w", err)
		}
		for i := 0; i < len(t.Enemies) && i < len(enemies); i++ {
			t.Enemies[i] = uint32(enemies[i])
		}
		for i := 0; i < len(t.Friends) && i < len(friends); i++ {
			t.Friends[i] = uint32(friends[i])
		}
		tt := t
		templates = append(templates, &tt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating faction templates: %w", err)
	}
	return model.NewFactionStore(templates), nil
}
