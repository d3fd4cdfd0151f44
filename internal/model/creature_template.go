package model

import "math/rand/v2"

// CreatureRank classifies elite status, driving corpse-decay timing and the
// world-boss leash exemption.
type CreatureRank uint8

const (
	RankNormal CreatureRank = iota
	RankElite
	RankRareElite
	RankWorldBoss
	RankRare
)

// CreatureType is the bestiary classification.
type CreatureType uint8

const (
	CreatureTypeNone CreatureType = iota
	CreatureTypeBeast
	CreatureTypeDragonkin
	CreatureTypeDemon
	CreatureTypeElemental
	CreatureTypeGiant
	CreatureTypeUndead
	CreatureTypeHumanoid
	CreatureTypeCritter
	CreatureTypeMechanical
)

// Creature type flags (template TypeFlags word).
const (
	CreatureTypeFlagBoss      uint32 = 1 << 0
	CreatureTypeFlagCanAssist uint32 = 1 << 12 // may aid player-controlled units
	CreatureTypeFlagGhostVisible uint32 = 1 << 13
)

// MovementType is the template-default motion pattern.
type MovementType uint8

const (
	MovementIdle MovementType = iota
	MovementRandom
	MovementWaypoint
)

// Static behavior flags, five independent 32-bit groups merged from template
// defaults and optional per-spawn/per-difficulty overrides.
type StaticFlag struct {
	group uint8
	mask  uint32
}

var (
	StaticFlagDespawnInstantly      = StaticFlag{0, 1 << 0}
	StaticFlagNoMelee               = StaticFlag{0, 1 << 1}
	StaticFlagBossMob               = StaticFlag{0, 1 << 2} // dungeon boss: never respawns in instance
	StaticFlagNoXP                  = StaticFlag{0, 1 << 3}
	StaticFlagUninteractible        = StaticFlag{0, 1 << 4}
	StaticFlagCanSwim               = StaticFlag{1, 1 << 0}
	StaticFlagFloating              = StaticFlag{1, 1 << 1}
	StaticFlagTreatAsRaidUnit       = StaticFlag{1, 1 << 2} // helpful spells treat as raid member
	StaticFlagNoLoot                = StaticFlag{1, 1 << 3}
	StaticFlagSessile               = StaticFlag{2, 1 << 0} // never moves from spawn
	StaticFlagIgnorePathing         = StaticFlag{2, 1 << 1}
	StaticFlagAllowMountedCombat    = StaticFlag{3, 1 << 0}
	StaticFlagForcePartyInCombat    = StaticFlag{3, 1 << 1} // drags whole parties into combat
	StaticFlagNoDeathEvent          = StaticFlag{4, 1 << 0}
	StaticFlagIgnoreSanctuary       = StaticFlag{4, 1 << 1}
)

// StaticFlagsHolder carries the five merged flag groups.
type StaticFlagsHolder struct {
	groups [5]uint32
}

// MergeStaticFlags combines template defaults with an optional override
// record: per group, the override wins when present, else the template value.
// Centralized so entry-initialization stays trivially testable.
func MergeStaticFlags(template [5]uint32, override [5]*uint32) StaticFlagsHolder {
	var h StaticFlagsHolder
	for i := range h.groups {
		if override[i] != nil {
			h.groups[i] = *override[i]
		} else {
			h.groups[i] = template[i]
		}
	}
	return h
}

// Has reports whether the flag's bits are set in its group.
func (h StaticFlagsHolder) Has(f StaticFlag) bool {
	return h.groups[f.group]&f.mask == f.mask
}

// Group returns a raw flag group word.
func (h StaticFlagsHolder) Group(i int) uint32 { return h.groups[i] }

// CreatureModel is one display choice with selection weight and scale.
type CreatureModel struct {
	DisplayID   uint32
	Scale       float32
	Probability float32
}

// triggerDisplayIDs are the invisible "trigger" models.
var triggerDisplayIDs = map[uint32]bool{
	11686: true,
	24719: true,
}

// IsTrigger reports the invisible-trigger-model heuristic.
func (m CreatureModel) IsTrigger() bool { return triggerDisplayIDs[m.DisplayID] }

// CreatureTemplate is the shared immutable description of a creature entry.
// Owned by the data-manager arena, which outlives every creature holding a
// reference.
type CreatureTemplate struct {
	Entry   uint32
	Name    string
	Title   string
	IconName string

	Type   CreatureType
	Family uint32
	Rank   CreatureRank

	Models   []CreatureModel
	MinLevel uint8
	MaxLevel uint8

	Faction    uint32
	NpcFlags   uint32
	UnitFlags  uint32
	UnitFlags2 uint32
	TypeFlags  uint32

	Scale float32

	SpeedWalk float32
	SpeedRun  float32

	BaseHealth     uint32
	HealthPerLevel uint32
	BaseMana       uint32
	ManaPerLevel   uint32

	Resistances [7]int32

	BaseAttackTime   uint32
	RangedAttackTime uint32
	DamageSchool     uint8
	MinDamage        float32
	MaxDamage        float32

	MovementTemplateID uint32
	MovementType       MovementType

	Spells [8]uint32

	LootID       uint32
	SkinLootID   uint32
	VendorID     uint32
	GossipMenuID uint32

	AIName string

	StaticFlags [5]uint32

	// DifficultyEntry chains to substitute templates for harder instance
	// difficulties; 0 terminates the chain.
	DifficultyEntry [3]uint32
}

// HasTypeFlag reports a TypeFlags bit.
func (t *CreatureTemplate) HasTypeFlag(f uint32) bool { return t.TypeFlags&f == f }

// IsWorldBoss reports the world-boss rank.
func (t *CreatureTemplate) IsWorldBoss() bool { return t.Rank == RankWorldBoss }

// RandomValidModel picks a display weighted by probability. Returns nil when
// the template carries no usable model.
func (t *CreatureTemplate) RandomValidModel() *CreatureModel {
	var total float32
	for i := range t.Models {
		if t.Models[i].DisplayID != 0 {
			total += t.Models[i].Probability
		}
	}
	if total <= 0 {
		return t.FirstValidModel()
	}
	roll := rand.Float32() * total
	for i := range t.Models {
		m := &t.Models[i]
		if m.DisplayID == 0 {
			continue
		}
		if roll < m.Probability {
			return m
		}
		roll -= m.Probability
	}
	return t.FirstValidModel()
}

// FirstValidModel returns the first model with a display id, or nil.
func (t *CreatureTemplate) FirstValidModel() *CreatureModel {
	for i := range t.Models {
		if t.Models[i].DisplayID != 0 {
			return &t.Models[i]
		}
	}
	return nil
}

// ModelWithDisplayID returns the model carrying the given display, or nil.
func (t *CreatureTemplate) ModelWithDisplayID(displayID uint32) *CreatureModel {
	for i := range t.Models {
		if t.Models[i].DisplayID == displayID {
			return &t.Models[i]
		}
	}
	return nil
}

// FirstInvisibleModel returns the first trigger model, falling back to a
// known trigger display.
func (t *CreatureTemplate) FirstInvisibleModel() CreatureModel {
	for i := range t.Models {
		if t.Models[i].IsTrigger() {
			return t.Models[i]
		}
	}
	return CreatureModel{DisplayID: 11686, Scale: 1, Probability: 1}
}

// FirstVisibleModel returns the first non-trigger model, falling back to a
// generic visible display.
func (t *CreatureTemplate) FirstVisibleModel() CreatureModel {
	for i := range t.Models {
		if t.Models[i].DisplayID != 0 && !t.Models[i].IsTrigger() {
			return t.Models[i]
		}
	}
	return CreatureModel{DisplayID: 17519, Scale: 1, Probability: 1}
}

// HealthFor computes spawn health for a level.
func (t *CreatureTemplate) HealthFor(level uint8) uint32 {
	extra := uint32(0)
	if level > t.MinLevel {
		extra = uint32(level-t.MinLevel) * t.HealthPerLevel
	}
	h := t.BaseHealth + extra
	if h == 0 {
		h = 1
	}
	return h
}

// ManaFor computes spawn mana for a level.
func (t *CreatureTemplate) ManaFor(level uint8) uint32 {
	extra := uint32(0)
	if level > t.MinLevel {
		extra = uint32(level-t.MinLevel) * t.ManaPerLevel
	}
	return t.BaseMana + extra
}

// TemplateStore is the creature-template lookup collaborator. Loaded once at
// shard startup, read-only afterwards.
type TemplateStore struct {
	templates map[uint32]*CreatureTemplate
	movement  map[uint32]MovementOverride
}

// NewTemplateStore builds a store from loaded templates.
func NewTemplateStore(templates []*CreatureTemplate) *TemplateStore {
	s := &TemplateStore{
		templates: make(map[uint32]*CreatureTemplate, len(templates)),
		movement:  make(map[uint32]MovementOverride),
	}
	for _, t := range templates {
		s.templates[t.Entry] = t
	}
	return s
}

// Lookup returns the template for an entry, or nil.
func (s *TemplateStore) Lookup(entry uint32) *CreatureTemplate {
	if s == nil {
		return nil
	}
	return s.templates[entry]
}

// SetMovementOverride registers speed overrides for a movement template.
func (s *TemplateStore) SetMovementOverride(id uint32, o MovementOverride) {
	s.movement[id] = o
}

// MovementOverrideFor returns the movement override, if registered.
func (s *TemplateStore) MovementOverrideFor(id uint32) (MovementOverride, bool) {
	o, ok := s.movement[id]
	return o, ok
}

// ForDifficulty walks the difficulty substitution chain: difficulty 0 is the
// base template, 1..3 follow DifficultyEntry links while present.
func (s *TemplateStore) ForDifficulty(entry uint32, difficulty uint8) *CreatureTemplate {
	t := s.Lookup(entry)
	if t == nil || difficulty == 0 {
		return t
	}
	step := difficulty
	if step > 3 {
		step = 3
	}
	for i := uint8(0); i < step; i++ {
		next := t.DifficultyEntry[i]
		if next == 0 {
			break
		}
		if nt := s.Lookup(next); nt != nil {
			t = nt
		} else {
			break
		}
	}
	return t
}

// MovementOverride optionally replaces template run/walk speeds; each field
// is independently present-or-absent.
type MovementOverride struct {
	WalkSpeed *float32
	RunSpeed  *float32
}
