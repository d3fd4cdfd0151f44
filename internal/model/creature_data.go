package model

import "time"

// SpawnObjectType discriminates persisted spawn records.
type SpawnObjectType uint8

const (
	SpawnTypeCreature SpawnObjectType = iota
	SpawnTypeGameObject
)

// CreatureData is one persisted spawn point. Records are loaded once at shard
// startup and shared read-only between maps.
type CreatureData struct {
	SpawnID     uint64
	Entry       uint32
	MapID       uint32
	SpawnPoint  Position
	PhaseMask   uint32
	DisplayID   uint32 // 0 picks from template models
	EquipmentID int32  // -1 uses template default

	SpawnTimeSecs time.Duration
	WanderDist    float32
	Currentwaypoint uint32

	CurHealth uint32
	CurMana   uint32

	MovementType MovementType

	NpcFlags     *uint32
	UnitFlags    *uint32
	DynamicFlags *uint32

	// StaticFlagOverrides replace whole template flag groups when present.
	StaticFlagOverrides [5]*uint32

	SpawnGroupID uint32

	ScriptID uint32
}

// SpawnGroupFlags control group behavior.
const (
	SpawnGroupFlagSystem          uint32 = 1 << 0
	SpawnGroupFlagCompatibilityMode uint32 = 1 << 1 // legacy self-polled respawn timing
	SpawnGroupFlagManualSpawn     uint32 = 1 << 2
	SpawnGroupFlagDespawnOnConditionFailure uint32 = 1 << 3
)

// SpawnGroupTemplate names a set of spawns toggled as a unit. Group 0 is the
// implicit default group every unassigned spawn belongs to.
type SpawnGroupTemplate struct {
	GroupID uint32
	Name    string
	Flags   uint32
}

// IsSystem reports the built-in default group.
func (g *SpawnGroupTemplate) IsSystem() bool { return g.Flags&SpawnGroupFlagSystem != 0 }

// IsCompatibilityMode reports legacy per-creature respawn timing: the
// despawned creature object stays resident and polls its own timer instead of
// handing the wakeup to the map scheduler.
func (g *SpawnGroupTemplate) IsCompatibilityMode() bool {
	return g.Flags&SpawnGroupFlagCompatibilityMode != 0
}

// RespawnInfo describes one pending respawn for inspection tooling.
type RespawnInfo struct {
	Type        SpawnObjectType
	SpawnID     uint64
	Entry       uint32
	RespawnTime time.Time
	GridID      uint32
}
