package model

// ReputationRank is the resolved standing tier between two parties.
type ReputationRank int8

const (
	RepHated ReputationRank = iota
	RepHostile
	RepUnfriendly
	RepNeutral
	RepFriendly
	RepHonored
	RepRevered
	RepExalted
)

func (r ReputationRank) String() string {
	names := [...]string{"HATED", "HOSTILE", "UNFRIENDLY", "NEUTRAL", "FRIENDLY", "HONORED", "REVERED", "EXALTED"}
	if int(r) < len(names) {
		return names[r]
	}
	return "UNKNOWN"
}

// Faction group masks.
const (
	FactionMaskPlayer   uint32 = 1 << 0
	FactionMaskAlliance uint32 = 1 << 1
	FactionMaskHorde    uint32 = 1 << 2
	FactionMaskMonster  uint32 = 1 << 3
)

// Faction template flags.
const (
	FactionTemplateFlagPvP            uint32 = 0x800
	FactionTemplateFlagContestedGuard uint32 = 0x1000
)

// FactionTemplate is the immutable hostility/friendliness description shared
// by every unit carrying the same faction-template id.
type FactionTemplate struct {
	ID          uint32
	Faction     uint32 // parent faction id (reputation-trackable)
	Flags       uint32
	OwnMask     uint32 // which groups this faction belongs to
	FriendMask  uint32 // groups treated as friends
	EnemyMask   uint32 // groups treated as enemies
	Enemies     [4]uint32
	Friends     [4]uint32
}

// IsFriendlyTo resolves template-level friendliness toward other.
func (f *FactionTemplate) IsFriendlyTo(other *FactionTemplate) bool {
	if other == nil {
		return true
	}
	if other.Faction != 0 {
		for _, e := range f.Enemies {
			if e == other.Faction {
				return false
			}
		}
		for _, fr := range f.Friends {
			if fr == other.Faction {
				return true
			}
		}
	}
	return f.FriendMask&other.OwnMask != 0 || f.OwnMask&other.FriendMask != 0
}

// IsHostileTo resolves template-level hostility toward other.
func (f *FactionTemplate) IsHostileTo(other *FactionTemplate) bool {
	if other == nil {
		return false
	}
	if other.Faction != 0 {
		for _, fr := range f.Friends {
			if fr == other.Faction {
				return false
			}
		}
		for _, e := range f.Enemies {
			if e == other.Faction {
				return true
			}
		}
	}
	return f.EnemyMask&other.OwnMask != 0
}

// IsHostileToPlayers reports whether the template attacks players on sight.
func (f *FactionTemplate) IsHostileToPlayers() bool {
	return f.EnemyMask&FactionMaskPlayer != 0
}

// IsNeutralToAll reports a template with no friends and no enemies.
func (f *FactionTemplate) IsNeutralToAll() bool {
	if f.EnemyMask != 0 || f.FriendMask != 0 {
		return false
	}
	for _, e := range f.Enemies {
		if e != 0 {
			return false
		}
	}
	return true
}

// CanHaveReputation reports whether players track standing with the parent
// faction, enabling rank refinement.
func (f *FactionTemplate) CanHaveReputation() bool { return f.Faction != 0 }

// FactionStore is the faction-template lookup collaborator, loaded once at
// shard startup and read-only afterwards.
type FactionStore struct {
	templates map[uint32]*FactionTemplate
}

// NewFactionStore builds a store from the given templates.
func NewFactionStore(templates []*FactionTemplate) *FactionStore {
	s := &FactionStore{templates: make(map[uint32]*FactionTemplate, len(templates))}
	for _, t := range templates {
		s.templates[t.ID] = t
	}
	return s
}

// Lookup returns the template for a faction-template id, or nil.
func (s *FactionStore) Lookup(id uint32) *FactionTemplate {
	if s == nil {
		return nil
	}
	return s.templates[id]
}

// factions is the active store, installed once at shard startup.
// Tests substitute their own via SetFactionStore.
var factions = NewFactionStore(nil)

// SetFactionStore installs the shard-wide faction store.
func SetFactionStore(s *FactionStore) { factions = s }

// FactionTemplateFor returns the unit's resolved faction template, or nil.
func (u *Unit) FactionTemplateFor() *FactionTemplate {
	return factions.Lookup(u.Faction())
}

// GetReactionTo resolves the standing tier between this unit and target.
// Pure with respect to both units.
func (u *Unit) GetReactionTo(target *Unit) ReputationRank {
	if target == nil {
		return RepNeutral
	}
	// Self is always friendly, and so are two bodies steered by the same
	// controller.
	if u.GUID() == target.GUID() {
		return RepFriendly
	}
	if u.CharmerOrOwnerOrOwnGUID() == target.CharmerOrOwnerOrOwnGUID() {
		return RepFriendly
	}

	selfPlayer := u.AffectingPlayer()
	targetPlayer := target.AffectingPlayer()

	if u.IsControlledByPlayer() && target.IsControlledByPlayer() && selfPlayer != nil && targetPlayer != nil {
		if selfPlayer.IsDuelingWith(targetPlayer) {
			return RepHostile
		}
		if selfPlayer.IsInSameGroupWith(targetPlayer) {
			return RepFriendly
		}
		if selfPlayer.IsFFAPvP() && targetPlayer.IsFFAPvP() {
			return RepHostile
		}
	}

	// Forced-reputation overrides, both directions.
	targetFaction := target.FactionTemplateFor()
	if selfPlayer != nil && targetFaction != nil && targetFaction.CanHaveReputation() {
		if rank, ok := selfPlayer.ForcedReactionFor(targetFaction.Faction); ok {
			return rank
		}
	}
	selfFaction := u.FactionTemplateFor()
	if targetPlayer != nil && selfFaction != nil && selfFaction.CanHaveReputation() {
		if rank, ok := targetPlayer.ForcedReactionFor(selfFaction.Faction); ok {
			return rank
		}
		// Earned standing refines the template fallback for trackable
		// factions.
		if rank, ok := targetPlayer.ReputationRankFor(selfFaction.Faction); ok {
			return rank
		}
	}
	if selfPlayer != nil && targetFaction != nil && targetFaction.CanHaveReputation() {
		if rank, ok := selfPlayer.ReputationRankFor(targetFaction.Faction); ok {
			return rank
		}
	}

	if selfFaction == nil || targetFaction == nil {
		return RepNeutral
	}
	if selfFaction.IsHostileTo(targetFaction) {
		return RepHostile
	}
	if selfFaction.IsFriendlyTo(targetFaction) {
		return RepFriendly
	}
	return RepNeutral
}

// IsFriendlyTo reports a friendly-or-better standing toward target.
func (u *Unit) IsFriendlyTo(target *Unit) bool {
	return u.GetReactionTo(target) >= RepFriendly
}

// IsHostileTo reports a hostile-or-worse standing toward target.
func (u *Unit) IsHostileTo(target *Unit) bool {
	return u.GetReactionTo(target) <= RepHostile
}

// SpellContext carries the few spell attributes the eligibility oracle needs.
type SpellContext struct {
	AllowDeadTarget   bool
	Positive          bool
	IgnorePhaseShift  bool
}

// IsValidAttackTarget is the combat-eligibility oracle: may u attack target
// right now. Pure; evaluation order is fixed and short-circuiting.
func (u *Unit) IsValidAttackTarget(target *Unit, spell *SpellContext) bool {
	if target == nil {
		return false
	}
	// Can't attack self.
	if u.GUID() == target.GUID() {
		return false
	}
	if !u.IsInWorld() || !target.IsInWorld() {
		return false
	}
	if target.HasUnitFlag(UnitFlagNonAttackable | UnitFlagNotSelectable) {
		return false
	}
	// GM veto.
	if tp, ok := target.Data.(*Player); ok && tp.IsGameMaster() {
		return false
	}
	// Visibility/detection veto.
	if !u.CanSeeOrDetect(&target.WorldObject, false, true, false) {
		return false
	}
	// Dead-target veto (resurrection-adjacent spells opt out).
	if !target.IsAlive() && (spell == nil || !spell.AllowDeadTarget) {
		return false
	}
	// Immunity cross-checks keyed on who is player-controlled.
	if target.HasUnitFlag(UnitFlagImmuneToPC) && u.IsControlledByPlayer() {
		return false
	}
	if target.HasUnitFlag(UnitFlagImmuneToNPC) && !u.IsControlledByPlayer() {
		return false
	}
	// Creature-vs-creature: attackable only when at least one side is
	// faction-hostile to the other.
	if !u.IsControlledByPlayer() && !target.IsControlledByPlayer() {
		return u.IsHostileTo(target) || target.IsHostileTo(u)
	}
	// Friendliness veto.
	reaction := u.GetReactionTo(target)
	if reaction > RepNeutral {
		return false
	}
	// Player-versus-player rules.
	if u.IsControlledByPlayer() && target.IsControlledByPlayer() {
		selfPlayer := u.AffectingPlayer()
		targetPlayer := target.AffectingPlayer()
		if selfPlayer != nil && targetPlayer != nil {
			if selfPlayer.IsDuelingWith(targetPlayer) {
				return true
			}
			// Sanctuary protects player-controlled targets.
			if target.IsInSanctuary() || u.IsInSanctuary() {
				return false
			}
			if selfPlayer.IsFFAPvP() && targetPlayer.IsFFAPvP() {
				return true
			}
			return target.IsPvP()
		}
	}
	// Mixed player/creature case: the friendliness veto above already passed,
	// so neutral standing does not protect the target.
	return true
}

// IsValidAssistTarget reports whether u may aim a helpful effect at target.
func (u *Unit) IsValidAssistTarget(target *Unit, spell *SpellContext) bool {
	if target == nil {
		return false
	}
	if u.GUID() == target.GUID() {
		return true
	}
	if !u.IsInWorld() || !target.IsInWorld() {
		return false
	}
	// A passenger cannot assist the vehicle carrying it.
	if u.VehicleGUID() == target.GUID() {
		return false
	}
	if target.HasUnitFlag(UnitFlagNonAttackable | UnitFlagNotSelectable) {
		return false
	}
	if tp, ok := target.Data.(*Player); ok && tp.IsGameMaster() {
		return false
	}
	if !u.CanSeeOrDetect(&target.WorldObject, false, true, false) {
		return false
	}
	if !target.IsAlive() && (spell == nil || !spell.AllowDeadTarget) {
		return false
	}
	// Helpful cross-faction PvP restrictions.
	if u.IsControlledByPlayer() && target.IsFFAPvP() && !u.IsFFAPvP() {
		return false
	}
	// Non-hostile reaction is required, unless the creature is flagged to
	// assist player-controlled units (raid-treated adds, argent defenders).
	if u.IsHostileTo(target) {
		return false
	}
	if !u.IsControlledByPlayer() && target.IsControlledByPlayer() {
		if c, ok := u.Data.(*Creature); ok {
			if !c.StaticFlags().Has(StaticFlagTreatAsRaidUnit) && !c.Template().HasTypeFlag(CreatureTypeFlagCanAssist) {
				return false
			}
		}
	}
	return true
}
