package model

// DeathState is the lifecycle state of a unit. JustDied and JustRespawned are
// transient: they are never the state entering a tick's Update.
type DeathState uint8

const (
	DeathStateAlive DeathState = iota
	DeathStateJustDied
	DeathStateCorpse
	DeathStateDead
	DeathStateJustRespawned
)

func (s DeathState) String() string {
	switch s {
	case DeathStateAlive:
		return "ALIVE"
	case DeathStateJustDied:
		return "JUST_DIED"
	case DeathStateCorpse:
		return "CORPSE"
	case DeathStateDead:
		return "DEAD"
	case DeathStateJustRespawned:
		return "JUST_RESPAWNED"
	default:
		return "UNKNOWN"
	}
}

// Unit flag bits (UnitFieldFlags).
const (
	UnitFlagServerControlled uint32 = 1 << 0
	UnitFlagNonAttackable    uint32 = 1 << 1
	UnitFlagPlayerControlled uint32 = 1 << 3
	UnitFlagImmuneToPC       uint32 = 1 << 8
	UnitFlagImmuneToNPC      uint32 = 1 << 9
	UnitFlagPetInCombat      uint32 = 1 << 11
	UnitFlagPacified         uint32 = 1 << 17
	UnitFlagStunned          uint32 = 1 << 18
	UnitFlagInCombat         uint32 = 1 << 19
	UnitFlagNotSelectable    uint32 = 1 << 25
)

// NPC interaction flag bits (UnitFieldNpcFlags).
const (
	NpcFlagGossip     uint32 = 1 << 0
	NpcFlagQuestGiver uint32 = 1 << 1
	NpcFlagVendor     uint32 = 1 << 7
	NpcFlagRepair     uint32 = 1 << 12
	NpcFlagSpellClick uint32 = 1 << 24
)

// Dynamic flag bits (UnitFieldDynamicFlags).
const (
	DynFlagLootable       uint32 = 1 << 0
	DynFlagTrackUnit      uint32 = 1 << 1
	DynFlagTapped         uint32 = 1 << 2
	DynFlagTappedByPlayer uint32 = 1 << 3
	DynFlagSpecialInfo    uint32 = 1 << 4
	DynFlagDead           uint32 = 1 << 5
)

// PvP state bits, byte 0 of UnitFieldBytes2.
const (
	PvPStateFlagPvP       uint8 = 1 << 0
	PvPStateFlagFFAPvP    uint8 = 1 << 2
	PvPStateFlagSanctuary uint8 = 1 << 3
)

// UnitState is transient server-side behavior state, never replicated.
type UnitState uint32

const (
	UnitStateEvade UnitState = 1 << iota
	UnitStateAttackPlayer
	UnitStateCasting
	UnitStateFleeing
	UnitStateInFlight
	UnitStateFollow
	UnitStateRoot
	UnitStateIgnorePathfinding
	UnitStateDistracted

	// unitStateErasable bits are cleared wholesale on respawn.
	unitStateErasable = UnitStateEvade | UnitStateAttackPlayer | UnitStateCasting |
		UnitStateFleeing | UnitStateFollow | UnitStateDistracted
)

// MovementFlags describe the unit's airborne/rooted movement mode.
type MovementFlags uint32

const (
	MoveFlagRooted MovementFlags = 1 << iota
	MoveFlagFalling
	MoveFlagFlying
	MoveFlagHovering
	MoveFlagDisableGravity
	MoveFlagWalking
)

// Unit is the shared layer between WorldObject and the concrete creature and
// player types: vitals, faction, flag groups, combat and death state.
type Unit struct {
	WorldObject

	deathState DeathState
	unitState  UnitState
	moveFlags  MovementFlags

	attacking  ObjectGuid
	attackedBy map[ObjectGuid]struct{}
	vehicle    ObjectGuid

	runSpeed  float32
	walkSpeed float32

	mounted bool
}

func (u *Unit) initUnit(typeID TypeID, guid ObjectGuid, typeMask uint32, name string) {
	u.initWorldObject(typeID, guid, typeMask|TypeMaskUnit, name)
	u.attackedBy = make(map[ObjectGuid]struct{})
	u.runSpeed = 7.0
	u.walkSpeed = 2.5
	u.values.SetFloat(UnitFieldCombatReach, 1.5)
	u.values.SetFloat(UnitFieldBoundingRadius, 0.306)
	u.values.ClearChanges()
}

// RunSpeed returns the run speed in yards per second.
func (u *Unit) RunSpeed() float32 { return u.runSpeed }

// SetRunSpeed sets the run speed.
func (u *Unit) SetRunSpeed(v float32) { u.runSpeed = v }

// WalkSpeed returns the walk speed in yards per second.
func (u *Unit) WalkSpeed() float32 { return u.walkSpeed }

// SetWalkSpeed sets the walk speed.
func (u *Unit) SetWalkSpeed(v float32) { u.walkSpeed = v }

// Attacking returns the current melee-attack target, empty when idle.
func (u *Unit) Attacking() ObjectGuid { return u.attacking }

// SetAttacking records the current melee-attack target.
func (u *Unit) SetAttacking(g ObjectGuid) { u.attacking = g }

// SetBoundingRadius sets the model collision radius.
func (u *Unit) SetBoundingRadius(r float32) { u.setFloat(UnitFieldBoundingRadius, r) }

// Vitals.

// Health returns current health.
func (u *Unit) Health() uint32 { return u.values.GetUInt32(UnitFieldHealth) }

// MaxHealth returns maximum health.
func (u *Unit) MaxHealth() uint32 { return u.values.GetUInt32(UnitFieldMaxHealth) }

// SetHealth writes current health, clamped to max.
func (u *Unit) SetHealth(v uint32) {
	if max := u.MaxHealth(); v > max {
		v = max
	}
	u.setUInt32(UnitFieldHealth, v)
}

// SetMaxHealth writes maximum health, clamping current health down if needed.
func (u *Unit) SetMaxHealth(v uint32) {
	u.setUInt32(UnitFieldMaxHealth, v)
	if u.Health() > v {
		u.setUInt32(UnitFieldHealth, v)
	}
}

// SetFullHealth restores health to maximum.
func (u *Unit) SetFullHealth() { u.SetHealth(u.MaxHealth()) }

// Power returns the active power resource.
func (u *Unit) Power() uint32 { return u.values.GetUInt32(UnitFieldPower) }

// MaxPower returns the active power resource cap.
func (u *Unit) MaxPower() uint32 { return u.values.GetUInt32(UnitFieldMaxPower) }

// SetPower writes the active power resource, clamped to max.
func (u *Unit) SetPower(v uint32) {
	if max := u.MaxPower(); v > max {
		v = max
	}
	u.setUInt32(UnitFieldPower, v)
}

// SetMaxPower writes the power cap.
func (u *Unit) SetMaxPower(v uint32) { u.setUInt32(UnitFieldMaxPower, v) }

// Level returns the unit level.
func (u *Unit) Level() uint8 { return uint8(u.values.GetUInt32(UnitFieldLevel)) }

// SetLevel writes the unit level.
func (u *Unit) SetLevel(l uint8) { u.setUInt32(UnitFieldLevel, uint32(l)) }

// Faction returns the faction-template id.
func (u *Unit) Faction() uint32 { return u.values.GetUInt32(UnitFieldFactionTemplate) }

// SetFaction writes the faction-template id.
func (u *Unit) SetFaction(f uint32) { u.setUInt32(UnitFieldFactionTemplate, f) }

// Flag groups.

// UnitFlags returns the replicated unit-flag word.
func (u *Unit) UnitFlags() uint32 { return u.values.GetUInt32(UnitFieldFlags) }

// SetUnitFlag ORs a unit flag in.
func (u *Unit) SetUnitFlag(f uint32) { u.setFlag(UnitFieldFlags, f) }

// RemoveUnitFlag clears a unit flag.
func (u *Unit) RemoveUnitFlag(f uint32) { u.removeFlag(UnitFieldFlags, f) }

// HasUnitFlag reports whether all bits of f are set.
func (u *Unit) HasUnitFlag(f uint32) bool { return u.hasFlag(UnitFieldFlags, f) }

// ReplaceAllUnitFlags rewrites the whole unit-flag word.
func (u *Unit) ReplaceAllUnitFlags(f uint32) { u.setUInt32(UnitFieldFlags, f) }

// NpcFlags returns the NPC-interaction flag word.
func (u *Unit) NpcFlags() uint32 { return u.values.GetUInt32(UnitFieldNpcFlags) }

// ReplaceAllNpcFlags rewrites the NPC-interaction flag word.
func (u *Unit) ReplaceAllNpcFlags(f uint32) { u.setUInt32(UnitFieldNpcFlags, f) }

// RemoveNpcFlag clears an NPC-interaction flag.
func (u *Unit) RemoveNpcFlag(f uint32) { u.removeFlag(UnitFieldNpcFlags, f) }

// HasNpcFlag reports whether all bits of f are set.
func (u *Unit) HasNpcFlag(f uint32) bool { return u.hasFlag(UnitFieldNpcFlags, f) }

// DynamicFlags returns the dynamic (loot/track) flag word.
func (u *Unit) DynamicFlags() uint32 { return u.values.GetUInt32(UnitFieldDynamicFlags) }

// SetDynamicFlag ORs a dynamic flag in.
func (u *Unit) SetDynamicFlag(f uint32) { u.setFlag(UnitFieldDynamicFlags, f) }

// RemoveDynamicFlag clears a dynamic flag.
func (u *Unit) RemoveDynamicFlag(f uint32) { u.removeFlag(UnitFieldDynamicFlags, f) }

// HasDynamicFlag reports whether all bits of f are set.
func (u *Unit) HasDynamicFlag(f uint32) bool { return u.hasFlag(UnitFieldDynamicFlags, f) }

// PvP state.

func (u *Unit) pvpFlags() uint8 { return u.values.GetByte(UnitFieldBytes2, 0) }

// IsPvP reports the PvP-enabled flag.
func (u *Unit) IsPvP() bool { return u.pvpFlags()&PvPStateFlagPvP != 0 }

// SetPvP toggles the PvP-enabled flag.
func (u *Unit) SetPvP(on bool) { u.setPvPFlag(PvPStateFlagPvP, on) }

// IsFFAPvP reports the free-for-all PvP flag.
func (u *Unit) IsFFAPvP() bool { return u.pvpFlags()&PvPStateFlagFFAPvP != 0 }

// SetFFAPvP toggles the free-for-all PvP flag.
func (u *Unit) SetFFAPvP(on bool) { u.setPvPFlag(PvPStateFlagFFAPvP, on) }

// IsInSanctuary reports the sanctuary-zone flag.
func (u *Unit) IsInSanctuary() bool { return u.pvpFlags()&PvPStateFlagSanctuary != 0 }

// SetSanctuary toggles the sanctuary-zone flag.
func (u *Unit) SetSanctuary(on bool) { u.setPvPFlag(PvPStateFlagSanctuary, on) }

func (u *Unit) setPvPFlag(flag uint8, on bool) {
	cur := u.pvpFlags()
	if on {
		cur |= flag
	} else {
		cur &^= flag
	}
	u.setByte(UnitFieldBytes2, 0, cur)
}

// Unit state.

// AddUnitState sets transient behavior bits.
func (u *Unit) AddUnitState(s UnitState) { u.unitState |= s }

// ClearUnitState clears transient behavior bits.
func (u *Unit) ClearUnitState(s UnitState) { u.unitState &^= s }

// HasUnitState reports whether any bit of s is set.
func (u *Unit) HasUnitState(s UnitState) bool { return u.unitState&s != 0 }

// ClearErasableUnitState clears all bits a respawn resets.
func (u *Unit) ClearErasableUnitState() { u.unitState &^= unitStateErasable }

// Movement flags.

// MoveFlags returns the current movement mode bits.
func (u *Unit) MoveFlags() MovementFlags { return u.moveFlags }

// SetMoveFlag sets movement mode bits.
func (u *Unit) SetMoveFlag(f MovementFlags) { u.moveFlags |= f }

// RemoveMoveFlag clears movement mode bits.
func (u *Unit) RemoveMoveFlag(f MovementFlags) { u.moveFlags &^= f }

// HasMoveFlag reports whether any bit of f is set.
func (u *Unit) HasMoveFlag(f MovementFlags) bool { return u.moveFlags&f != 0 }

// SetRooted toggles the root movement bit.
func (u *Unit) SetRooted(on bool) {
	if on {
		u.moveFlags |= MoveFlagRooted
	} else {
		u.moveFlags &^= MoveFlagRooted
	}
}

// Ownership / charm relations (replicated guid fields).

// OwnerGUID returns the summoner identity, or empty.
func (u *Unit) OwnerGUID() ObjectGuid { return u.values.GetGuid(UnitFieldSummonedBy) }

// SetOwnerGUID writes the summoner identity.
func (u *Unit) SetOwnerGUID(g ObjectGuid) { u.setGuidValue(UnitFieldSummonedBy, g) }

// CharmerGUID returns the charmer identity, or empty.
func (u *Unit) CharmerGUID() ObjectGuid { return u.values.GetGuid(UnitFieldCharmedBy) }

// SetCharmerGUID writes the charmer identity.
func (u *Unit) SetCharmerGUID(g ObjectGuid) { u.setGuidValue(UnitFieldCharmedBy, g) }

// CreatorGUID returns the creator identity (traps, totems), or empty.
func (u *Unit) CreatorGUID() ObjectGuid { return u.values.GetGuid(UnitFieldCreatedBy) }

// SetCreatorGUID writes the creator identity.
func (u *Unit) SetCreatorGUID(g ObjectGuid) { u.setGuidValue(UnitFieldCreatedBy, g) }

// CharmerOrOwnerGUID prefers the charmer over the owner.
func (u *Unit) CharmerOrOwnerGUID() ObjectGuid {
	if g := u.CharmerGUID(); !g.IsEmpty() {
		return g
	}
	return u.OwnerGUID()
}

// CharmerOrOwnerOrOwnGUID resolves to self when neither relation exists.
func (u *Unit) CharmerOrOwnerOrOwnGUID() ObjectGuid {
	if g := u.CharmerOrOwnerGUID(); !g.IsEmpty() {
		return g
	}
	return u.GUID()
}

// CharmerOrOwner resolves the controlling unit through the map, or nil.
func (u *Unit) CharmerOrOwner() *Unit {
	g := u.CharmerOrOwnerGUID()
	if g.IsEmpty() || u.ctx == nil {
		return nil
	}
	obj := u.ctx.FindWorldObject(g)
	if obj == nil {
		return nil
	}
	return UnitFromObject(obj)
}

// CharmerOrOwnerOrSelf resolves the controlling unit, falling back to self.
func (u *Unit) CharmerOrOwnerOrSelf() *Unit {
	if owner := u.CharmerOrOwner(); owner != nil {
		return owner
	}
	return u.self()
}

// AffectingPlayer walks the ownership chain to the controlling player, or
// nil. Used for reputation and loot attribution.
func (u *Unit) AffectingPlayer() *Player {
	if g := u.CharmerOrOwnerGUID(); g.IsEmpty() {
		if p, ok := u.Data.(*Player); ok {
			return p
		}
		return nil
	}
	owner := u.CharmerOrOwner()
	if owner == nil {
		return nil
	}
	return owner.AffectingPlayer()
}

// IsControlledByPlayer reports whether a player steers this unit (directly or
// via charm), which drives the immune-to-PC/NPC cross-checks.
func (u *Unit) IsControlledByPlayer() bool {
	return u.HasUnitFlag(UnitFlagPlayerControlled) || u.CharmerOrOwnerGUID().IsPlayer() ||
		u.GUID().IsPlayer()
}

// VehicleGUID returns the vehicle this unit rides as a passenger, or empty.
func (u *Unit) VehicleGUID() ObjectGuid { return u.vehicle }

// SetVehicleGUID records the carrying vehicle.
func (u *Unit) SetVehicleGUID(g ObjectGuid) { u.vehicle = g }

// Target tracking.

// Target returns the replicated current-target identity.
func (u *Unit) Target() ObjectGuid { return u.values.GetGuid(UnitFieldTarget) }

// SetTarget writes the replicated current-target identity.
func (u *Unit) SetTarget(g ObjectGuid) { u.setGuidValue(UnitFieldTarget, g) }

// Combat bookkeeping. attackedBy is maintained by the combat collaborator.

// RegisterAttacker records an incoming attacker.
func (u *Unit) RegisterAttacker(g ObjectGuid) { u.attackedBy[g] = struct{}{} }

// UnregisterAttacker drops an attacker record.
func (u *Unit) UnregisterAttacker(g ObjectGuid) { delete(u.attackedBy, g) }

// Attackers returns the identities currently attacking this unit.
func (u *Unit) Attackers() []ObjectGuid {
	out := make([]ObjectGuid, 0, len(u.attackedBy))
	for g := range u.attackedBy {
		out = append(out, g)
	}
	return out
}

// IsInCombat reports the replicated in-combat flag.
func (u *Unit) IsInCombat() bool { return u.HasUnitFlag(UnitFlagInCombat) }

// SetInCombat toggles the replicated in-combat flag.
func (u *Unit) SetInCombat(on bool) {
	if on {
		u.SetUnitFlag(UnitFlagInCombat)
	} else {
		u.RemoveUnitFlag(UnitFlagInCombat)
	}
}

// Death state. Creature overlays its lifecycle machine on top of this base.

// DeathState returns the current lifecycle state.
func (u *Unit) DeathState() DeathState { return u.deathState }

// IsAlive reports whether the unit is in the ALIVE state.
func (u *Unit) IsAlive() bool { return u.deathState == DeathStateAlive }

// IsDead reports whether the unit is in CORPSE or DEAD state.
func (u *Unit) IsDead() bool {
	return u.deathState == DeathStateCorpse || u.deathState == DeathStateDead
}

// setDeathStateBase is the generic bookkeeping shared by all unit types.
func (u *Unit) setDeathStateBase(s DeathState) {
	u.deathState = s
	switch s {
	case DeathStateJustDied:
		u.SetHealth(0)
		u.SetInCombat(false)
		u.attacking = EmptyGuid
		u.SetDynamicFlag(DynFlagDead)
	case DeathStateJustRespawned:
		u.RemoveDynamicFlag(DynFlagDead)
	}
}

// Display / mount.

// DisplayID returns the current model id.
func (u *Unit) DisplayID() uint32 { return u.values.GetUInt32(UnitFieldDisplayID) }

// SetDisplayID writes the current model id.
func (u *Unit) SetDisplayID(id uint32) { u.setUInt32(UnitFieldDisplayID, id) }

// NativeDisplayID returns the template-derived model id.
func (u *Unit) NativeDisplayID() uint32 { return u.values.GetUInt32(UnitFieldNativeDisplayID) }

// SetNativeDisplayID writes the template-derived model id.
func (u *Unit) SetNativeDisplayID(id uint32) { u.setUInt32(UnitFieldNativeDisplayID, id) }

// MountDisplayID returns the mount model id, 0 when unmounted.
func (u *Unit) MountDisplayID() uint32 { return u.values.GetUInt32(UnitFieldMountDisplayID) }

// Mount displays the given mount model.
func (u *Unit) Mount(displayID uint32) {
	u.setUInt32(UnitFieldMountDisplayID, displayID)
	u.mounted = true
}

// Dismount removes the mount model.
func (u *Unit) Dismount() {
	u.setUInt32(UnitFieldMountDisplayID, 0)
	u.mounted = false
}

// IsMounted reports whether a mount is displayed.
func (u *Unit) IsMounted() bool { return u.mounted }

// CombatReach returns the replicated melee reach.
func (u *Unit) CombatReach() float32 { return u.values.GetFloat(UnitFieldCombatReach) }

// SetCombatReach writes the replicated melee reach.
func (u *Unit) SetCombatReach(r float32) { u.setFloat(UnitFieldCombatReach, r) }

// IsWithinCombatReach reports whether other is inside the summed reach.
func (u *Unit) IsWithinCombatReach(other *Unit) bool {
	reach := u.CombatReach() + other.CombatReach()
	if reach < minMeleeReach {
		reach = minMeleeReach
	}
	return u.IsWithinDist(&other.WorldObject, reach)
}

const minMeleeReach = 5.0

// LevelForTarget lets boss-rank creatures present a capped level to viewers;
// the base returns the plain level.
func (u *Unit) LevelForTarget(_ *WorldObject) uint8 { return u.Level() }

func (u *Unit) self() *Unit {
	switch v := u.Data.(type) {
	case *Creature:
		return &v.Unit
	case *Player:
		return &v.Unit
	default:
		return u
	}
}

// UnitFromObject recovers the Unit layer from a WorldObject, or nil when the
// object is not a unit.
func UnitFromObject(obj *WorldObject) *Unit {
	switch v := obj.Data.(type) {
	case *Creature:
		return &v.Unit
	case *Player:
		return &v.Unit
	default:
		return nil
	}
}
