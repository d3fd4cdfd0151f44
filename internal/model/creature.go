package model

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"
)

// Aggro radius tuning. Gameplay-balance contract constants; do not re-derive.
const (
	aggroYardsPerLevel = 1.0
)

// Timer intervals.
const (
	boundaryCheckInterval = 2500 * time.Millisecond
	regenInterval         = 2 * time.Second
	noPathEvadeThreshold  = 5 * time.Second
	focusReacquireDelay   = 1 * time.Second

	assistanceRadius = 10.0
	assistanceDelay  = 1500 * time.Millisecond
	callForHelpRange = 5.0
)

// Corpse decay by rank, used when the spawn record carries no override.
var corpseDelayByRank = map[CreatureRank]time.Duration{
	RankNormal:    60 * time.Second,
	RankElite:     300 * time.Second,
	RankRareElite: 300 * time.Second,
	RankWorldBoss: 3600 * time.Second,
	RankRare:      300 * time.Second,
}

// respawnNever parks a spawn forever: dungeon bosses with no configured
// respawn delay must not come back within the instance.
var respawnNever = time.Unix(0, math.MaxInt64)

// Creature is the server-driven NPC entity: template-derived stats, the
// death-state machine, respawn scheduling, threat, loot tapping and the AI
// attachment point. All mutation happens on the owning map's update
// goroutine.
type Creature struct {
	Unit

	template *CreatureTemplate
	store    *TemplateStore
	data     *CreatureData
	spawnID  uint64

	spawnGroup *SpawnGroupTemplate

	staticFlags StaticFlagsHolder

	ai        CreatureAI
	aiEnabled bool

	respawn RespawnStrategy

	homePosition Position

	corpseDelay  time.Duration
	respawnDelay time.Duration
	wanderDist   float32

	corpseRemoveTime time.Time
	respawnTime      time.Time

	groupLootTimer  time.Duration
	lootRollResolve func()

	lootRecipient      ObjectGuid
	lootRecipientGroup uint32
	playerDamageReq    uint32

	equipmentID         int32
	originalEquipmentID int32

	cannotReachTarget bool
	cannotReachTimer  time.Duration

	boundaryCheckTimer time.Duration
	regenTimer         time.Duration

	spellFocusID     uint32
	spellFocusTarget ObjectGuid
	hasSpellFocus    bool

	threat *ThreatManager
	events EventQueue

	formation *CreatureFormation

	triggerJustAppeared   bool
	alreadyCalledAssist   bool
	hasSearchedAssistance bool
	isTempSummon          bool
	engaged               bool
}

// NewCreature builds a transient (unspawned) creature from a template entry.
// Transient creatures always use the legacy respawn model.
func NewCreature(store *TemplateStore, guid ObjectGuid, entry uint32, pos Position) (*Creature, error) {
	c := &Creature{store: store, respawn: legacyRespawn{}}
	c.initUnit(TypeIDUnit, guid, TypeMaskUnit, "")
	c.threat = newThreatManager(&c.Unit)
	if err := c.InitEntry(entry, nil); err != nil {
		return nil, err
	}
	c.SelectLevel()
	c.Relocate(pos)
	c.homePosition = pos
	c.values.ClearChanges()
	c.Data = c
	c.attachAI()
	c.triggerJustAppeared = true
	return c, nil
}

// NewCreatureFromSpawn builds a creature from a persisted spawn record,
// applying per-spawn overrides and choosing the respawn model from the spawn
// group's compatibility bit.
func NewCreatureFromSpawn(store *TemplateStore, guid ObjectGuid, data *CreatureData, group *SpawnGroupTemplate, difficulty uint8) (*Creature, error) {
	if data == nil {
		return nil, fmt.Errorf("create creature: nil spawn data")
	}
	c := &Creature{store: store, data: data, spawnID: data.SpawnID, spawnGroup: group}
	if group == nil || group.IsCompatibilityMode() {
		c.respawn = legacyRespawn{}
	} else {
		c.respawn = pooledRespawn{}
	}
	c.initUnit(TypeIDUnit, guid, TypeMaskUnit, "")
	c.threat = newThreatManager(&c.Unit)

	entry := data.Entry
	if t := store.ForDifficulty(entry, difficulty); t != nil {
		entry = t.Entry
	}
	if err := c.InitEntry(entry, data); err != nil {
		return nil, err
	}
	c.SelectLevel()

	if !data.SpawnPoint.IsFinite() {
		return nil, fmt.Errorf("create creature: spawn %d has invalid position", data.SpawnID)
	}
	c.Relocate(data.SpawnPoint)
	c.homePosition = data.SpawnPoint

	c.respawnDelay = data.SpawnTimeSecs
	c.wanderDist = data.WanderDist
	for i := uint32(1); i < data.PhaseMask; i <<= 1 {
		if data.PhaseMask&i != 0 {
			c.Phase().Add(i)
		}
	}
	if data.CurHealth > 0 && data.CurHealth < c.MaxHealth() {
		c.SetHealth(data.CurHealth)
	}
	if data.CurMana > 0 && data.CurMana < c.MaxPower() {
		c.SetPower(data.CurMana)
	}

	c.values.ClearChanges()
	c.Data = c
	c.attachAI()
	c.triggerJustAppeared = true
	return c, nil
}

func (c *Creature) attachAI() {
	if aiFactory != nil {
		c.ai = aiFactory(c)
	}
	if c.ai == nil {
		c.ai = NullAI{}
	}
	c.aiEnabled = true
}

// InitEntry binds the creature to a template entry and derives replicated
// fields from template defaults plus spawn overrides. Fails without touching
// world registration when the data is unusable.
func (c *Creature) InitEntry(entry uint32, data *CreatureData) error {
	t := c.store.Lookup(entry)
	if t == nil {
		return fmt.Errorf("init entry %d: template not found", entry)
	}
	c.template = t
	c.SetEntry(entry)
	c.SetName(t.Name)

	var override [5]*uint32
	if data != nil {
		override = data.StaticFlagOverrides
	}
	c.staticFlags = MergeStaticFlags(t.StaticFlags, override)

	model := t.RandomValidModel()
	if data != nil && data.DisplayID != 0 {
		model = t.ModelWithDisplayID(data.DisplayID)
		if model == nil {
			slog.Error("spawn display not in template model list",
				"entry", entry, "display", data.DisplayID)
			model = t.RandomValidModel()
		}
	}
	if model == nil {
		return fmt.Errorf("init entry %d: template has no valid model", entry)
	}
	c.SetDisplayID(model.DisplayID)
	c.SetNativeDisplayID(model.DisplayID)
	scale := t.Scale
	if model.Scale > 0 {
		scale *= model.Scale
	}
	if scale <= 0 {
		scale = 1
	}
	c.SetScale(scale)

	c.SetFaction(t.Faction)
	c.applyFlagDefaults(data)

	c.setUInt32(UnitFieldAttackTime, t.BaseAttackTime)
	c.setUInt32(UnitFieldRangedAttackTime, t.RangedAttackTime)
	c.setFloat(UnitFieldMinDamage, t.MinDamage)
	c.setFloat(UnitFieldMaxDamage, t.MaxDamage)

	c.SetRunSpeed(t.SpeedRun)
	c.SetWalkSpeed(t.SpeedWalk)
	if o, ok := c.store.MovementOverrideFor(t.MovementTemplateID); ok {
		if o.RunSpeed != nil {
			c.SetRunSpeed(*o.RunSpeed)
		}
		if o.WalkSpeed != nil {
			c.SetWalkSpeed(*o.WalkSpeed)
		}
	}

	c.corpseDelay = corpseDelayByRank[t.Rank]
	if c.staticFlags.Has(StaticFlagDespawnInstantly) {
		c.corpseDelay = 0
	}
	if data != nil {
		c.equipmentID = data.EquipmentID
		c.originalEquipmentID = data.EquipmentID
	}
	return nil
}

// applyFlagDefaults re-derives the replicated flag words from template
// defaults, spawn overrides and static flags.
func (c *Creature) applyFlagDefaults(data *CreatureData) {
	t := c.template

	npcFlags := t.NpcFlags
	unitFlags := t.UnitFlags
	var dynFlags uint32
	if data != nil {
		if data.NpcFlags != nil {
			npcFlags = *data.NpcFlags
		}
		if data.UnitFlags != nil {
			unitFlags = *data.UnitFlags
		}
		if data.DynamicFlags != nil {
			dynFlags = *data.DynamicFlags
		}
	}
	if c.staticFlags.Has(StaticFlagUninteractible) {
		unitFlags |= UnitFlagNotSelectable
	}
	c.ReplaceAllNpcFlags(npcFlags)
	c.ReplaceAllUnitFlags(unitFlags)
	c.setUInt32(UnitFieldDynamicFlags, dynFlags)
}

// UpdateEntry rebinds the creature to a different entry in place, re-rolling
// level and vitals.
func (c *Creature) UpdateEntry(entry uint32) error {
	if err := c.InitEntry(entry, c.data); err != nil {
		return err
	}
	c.SelectLevel()
	c.SetFullHealth()
	return nil
}

// SelectLevel rolls the level from the template range (deterministic when the
// range is a single value) and derives vitals from it.
func (c *Creature) SelectLevel() {
	t := c.template
	level := t.MinLevel
	if t.MaxLevel > t.MinLevel {
		level = t.MinLevel + uint8(rand.UintN(uint(t.MaxLevel-t.MinLevel)+1))
	}
	c.SetLevel(level)

	health := t.HealthFor(level)
	c.SetMaxHealth(health)
	c.SetFullHealth()
	mana := t.ManaFor(level)
	c.SetMaxPower(mana)
	c.SetPower(mana)
}

// Accessors.

// Template returns the bound creature template.
func (c *Creature) Template() *CreatureTemplate { return c.template }

// StaticFlags returns the merged static behavior flags.
func (c *Creature) StaticFlags() StaticFlagsHolder { return c.staticFlags }

// SpawnID returns the persisted spawn id, 0 for transient creatures.
func (c *Creature) SpawnID() uint64 { return c.spawnID }

// SpawnGroup returns the owning spawn group, nil for the default group.
func (c *Creature) SpawnGroup() *SpawnGroupTemplate { return c.spawnGroup }

// AI returns the attached behavior controller.
func (c *Creature) AI() CreatureAI { return c.ai }

// SetAI replaces the behavior controller.
func (c *Creature) SetAI(ai CreatureAI) { c.ai = ai }

// NotifyMoveInLineOfSight forwards a nearby unit's movement to the behavior
// controller. Called by the owning map when a unit crosses cells.
func (c *Creature) NotifyMoveInLineOfSight(who *Unit) {
	if who == nil || !c.aiEnabled || !c.IsAlive() {
		return
	}
	c.ai.MoveInLineOfSight(who)
}

// IsAIEnabled reports whether lifecycle hooks fire.
func (c *Creature) IsAIEnabled() bool { return c.aiEnabled }

// SetAIEnabled toggles behavior dispatch.
func (c *Creature) SetAIEnabled(on bool) { c.aiEnabled = on }

// HomePosition returns the anchor the creature evades back to.
func (c *Creature) HomePosition() Position { return c.homePosition }

// SetHomePosition re-anchors the evade/home point.
func (c *Creature) SetHomePosition(p Position) { c.homePosition = p }

// RespawnTime returns the pending respawn deadline.
func (c *Creature) RespawnTime() time.Time { return c.respawnTime }

// CorpseRemoveTime returns the pending corpse-removal deadline.
func (c *Creature) CorpseRemoveTime() time.Time { return c.corpseRemoveTime }

// RespawnDelay returns the configured respawn delay.
func (c *Creature) RespawnDelay() time.Duration { return c.respawnDelay }

// SetRespawnDelay reconfigures the respawn delay.
func (c *Creature) SetRespawnDelay(d time.Duration) { c.respawnDelay = d }

// CorpseDelay returns the configured corpse-decay delay.
func (c *Creature) CorpseDelay() time.Duration { return c.corpseDelay }

// WanderDistance returns the random-motion radius.
func (c *Creature) WanderDistance() float32 { return c.wanderDist }

// EquipmentID returns the current equipment-template override.
func (c *Creature) EquipmentID() int32 { return c.equipmentID }

// SetEquipmentID overrides the equipment template for this spawn cycle.
func (c *Creature) SetEquipmentID(id int32) { c.equipmentID = id }

// Events returns the creature's deferred-action timeline.
func (c *Creature) Events() *EventQueue { return &c.events }

// ThreatManager returns the creature's threat list.
func (c *Creature) ThreatManager() *ThreatManager { return c.threat }

// Formation returns the formation, nil when unaffiliated.
func (c *Creature) Formation() *CreatureFormation { return c.formation }

// IsTempSummon reports a temporary summoned creature.
func (c *Creature) IsTempSummon() bool { return c.isTempSummon }

// SetTempSummon marks the creature as a temporary summon.
func (c *Creature) SetTempSummon(v bool) { c.isTempSummon = v }

// IsDungeonBoss reports the boss static flag.
func (c *Creature) IsDungeonBoss() bool { return c.staticFlags.Has(StaticFlagBossMob) }

// IsWorldBoss reports world-boss rank.
func (c *Creature) IsWorldBoss() bool { return c.template.IsWorldBoss() }

// IsInEvadeMode reports an active evade.
func (c *Creature) IsInEvadeMode() bool { return c.HasUnitState(UnitStateEvade) }

// IsEngaged reports active combat engagement.
func (c *Creature) IsEngaged() bool { return c.engaged }

func (c *Creature) now() time.Time {
	if ctx := c.Context(); ctx != nil {
		return ctx.Now()
	}
	return time.Now()
}

// CanAlwaysSee delegates unconditional sight to the AI hook.
func (c *Creature) CanAlwaysSee(obj *WorldObject) bool {
	return c.aiEnabled && c.ai.CanSeeAlways(obj)
}

// Death-state machine.

// SetDeathState drives the lifecycle transitions. The transient JUST_DIED
// and JUST_RESPAWNED states complete within this call: callers and observers
// only ever see CORPSE or ALIVE afterwards.
func (c *Creature) SetDeathState(s DeathState) {
	var killer *Unit
	if s == DeathStateJustDied {
		killer = c.threat.CurrentVictim()
	}
	c.setDeathStateBase(s)

	switch s {
	case DeathStateJustDied:
		now := c.now()
		c.corpseRemoveTime = now.Add(c.corpseDelay)

		respawnDelay := c.respawnDelay
		if ctx := c.Context(); ctx != nil {
			if rate := ctx.RespawnRate(); rate > 0 {
				respawnDelay = time.Duration(float64(respawnDelay) * rate)
			}
		}
		if c.respawn.CompatibilityMode() {
			c.respawnTime = now.Add(respawnDelay + c.corpseDelay)
		} else {
			c.respawnTime = now.Add(respawnDelay)
		}
		if c.IsDungeonBoss() && respawnDelay == 0 {
			if ctx := c.Context(); ctx != nil && ctx.IsDungeon() {
				c.respawnTime = respawnNever
			}
		}
		c.saveRespawnTimeLocked()

		c.ReleaseSpellFocusIfAny()
		c.SetTarget(EmptyGuid)
		c.ReplaceAllNpcFlags(0)
		c.AtDisengage()

		if c.formation != nil {
			c.formation.MemberDied(c)
		}

		// A flying or hovering body starts falling unless already grounded
		// or rooted.
		airborne := MoveFlagFlying | MoveFlagHovering | MoveFlagDisableGravity
		if c.HasMoveFlag(airborne) && !c.HasMoveFlag(MoveFlagRooted|MoveFlagFalling) {
			c.RemoveMoveFlag(airborne)
			c.SetMoveFlag(MoveFlagFalling)
		}

		c.SetDeathState(DeathStateCorpse)

		if c.aiEnabled {
			c.ai.JustDied(killer)
		}

	case DeathStateJustRespawned:
		if c.isOwnedPet() {
			c.SetFullHealth()
			c.SetPower(c.MaxPower())
		} else {
			health := c.template.HealthFor(c.Level())
			if c.data != nil && c.data.CurHealth > 0 && c.data.CurHealth < health {
				health = c.data.CurHealth
			}
			c.SetMaxHealth(c.template.HealthFor(c.Level()))
			c.SetHealth(health)
			c.SetPower(c.template.ManaFor(c.Level()))
		}

		c.lootRecipient = EmptyGuid
		c.lootRecipientGroup = 0
		c.ResetPlayerDamageReq()
		c.SetCannotReachTarget(false)
		c.RemoveMoveFlag(MoveFlagFalling)
		c.ClearErasableUnitState()

		if !c.isOwnedPet() {
			c.applyFlagDefaults(c.data)
		}

		c.SetDeathState(DeathStateAlive)
	}
}

func (c *Creature) isOwnedPet() bool {
	return !c.OwnerGUID().IsEmpty() && c.GUID().High() == HighGuidPet
}

// Update advances every creature-owned timer by the elapsed tick duration.
func (c *Creature) Update(diff time.Duration) {
	if c.triggerJustAppeared && c.deathState != DeathStateDead {
		c.triggerJustAppeared = false
		if c.aiEnabled {
			c.ai.JustAppeared()
		}
	}

	switch c.deathState {
	case DeathStateJustDied, DeathStateJustRespawned:
		// Transient states must never survive to tick entry.
		slog.Error("creature entered update in transient death state",
			"guid", c.GUID(), "entry", c.Entry(), "state", c.deathState)
		return

	case DeathStateDead:
		c.respawn.UpdateDead(c)

	case DeathStateCorpse:
		c.events.Update(diff)
		if c.lootRollResolve != nil {
			if c.groupLootTimer <= diff {
				resolve := c.lootRollResolve
				c.lootRollResolve = nil
				c.groupLootTimer = 0
				resolve()
			} else {
				c.groupLootTimer -= diff
			}
			return
		}
		if c.now().After(c.corpseRemoveTime) {
			c.RemoveCorpse(false, true)
		}

	case DeathStateAlive:
		c.events.Update(diff)
		// Death during event processing defers everything to the next tick
		// so the same tick never processes both sides of the transition.
		if !c.IsAlive() {
			return
		}

		c.boundaryCheckTimer += diff
		if c.boundaryCheckTimer >= boundaryCheckInterval {
			c.boundaryCheckTimer = 0
			if c.aiEnabled && c.IsEngaged() && !c.ai.CheckInRoom() {
				c.ai.EnterEvadeMode(EvadeReasonBoundary)
				return
			}
		}

		if c.aiEnabled {
			c.ai.UpdateAI(diff)
		}
		if !c.IsAlive() {
			return
		}

		c.regenTimer += diff
		if c.regenTimer >= regenInterval {
			c.regenTimer = 0
			c.Regenerate()
		}

		if c.cannotReachTarget && !c.IsInEvadeMode() {
			ctx := c.Context()
			if ctx == nil || !ctx.IsRaid() {
				c.cannotReachTimer += diff
				if c.cannotReachTimer >= noPathEvadeThreshold && c.aiEnabled {
					c.ai.EnterEvadeMode(EvadeReasonNoPath)
				}
			}
		}
	}
}

// Regenerate restores health out of combat and the active power resource on
// its own interval.
func (c *Creature) Regenerate() {
	if !c.IsInCombat() {
		if h := c.Health(); h < c.MaxHealth() {
			gain := c.MaxHealth() / 3
			if h+gain > c.MaxHealth() {
				c.SetFullHealth()
			} else {
				c.SetHealth(h + gain)
			}
		}
	}
	if p := c.Power(); p < c.MaxPower() {
		gain := c.MaxPower() / 5
		if p+gain > c.MaxPower() {
			c.SetPower(c.MaxPower())
		} else {
			c.SetPower(p + gain)
		}
	}
}

// RemoveCorpse transitions CORPSE to DEAD, clears loot, lets the AI adjust
// the pending respawn delay and snaps the body back to its spawn point.
func (c *Creature) RemoveCorpse(setSpawnTime, destroyForNearby bool) {
	if c.deathState != DeathStateCorpse {
		return
	}
	now := c.now()
	c.corpseRemoveTime = now
	c.setDeathStateBase(DeathStateDead)

	delay := c.respawnDelay
	if c.aiEnabled {
		delay = c.ai.CorpseRemoved(delay)
	}

	c.lootRecipient = EmptyGuid
	c.lootRecipientGroup = 0
	c.lootRollResolve = nil
	c.groupLootTimer = 0

	if destroyForNearby {
		if ctx := c.Context(); ctx != nil {
			ctx.ObjectDestroyedForNearby(&c.WorldObject)
		}
	}

	home := c.homePosition
	if t := c.GetTransport(); t != nil {
		ofs := c.TransportOffset()
		home = t.TransportPosition().OffsetBy(ofs.X, ofs.Y, ofs.Z)
	}
	c.Relocate(home)

	if setSpawnTime {
		c.setRespawnTime(now.Add(delay))
	}
}

// setRespawnTime advances the pending deadline, never moving it backwards,
// and persists it.
func (c *Creature) setRespawnTime(t time.Time) {
	if t.After(c.respawnTime) {
		c.respawnTime = t
	}
	c.saveRespawnTimeLocked()
}

// SaveRespawnTime persists the current deadline to the map's respawn table.
func (c *Creature) SaveRespawnTime() { c.saveRespawnTimeLocked() }

func (c *Creature) saveRespawnTimeLocked() {
	ctx := c.Context()
	if ctx == nil || c.spawnID == 0 || c.isTempSummon {
		return
	}
	if prev := ctx.RespawnTimeFor(c.spawnID); prev.After(c.respawnTime) {
		return
	}
	ctx.SaveRespawnTime(c.spawnID, c.respawnTime)
}

// Respawn brings the creature back to life through the configured strategy.
// With force set, a living creature is first driven through death.
func (c *Creature) Respawn(force bool) { c.respawn.Respawn(c, force) }

// ForcedDespawn removes the creature, optionally after a delay and with a
// one-shot respawn-delay override.
func (c *Creature) ForcedDespawn(delay, forceRespawnTimer time.Duration) {
	if delay > 0 {
		c.events.Schedule(delay, &ForcedDespawnEvent{Owner: c, RespawnTimer: forceRespawnTimer})
		return
	}
	c.respawn.Despawn(c, forceRespawnTimer)
}

// ApplyPendingRespawn parks a freshly loaded creature in the dead wait
// state because its persisted respawn deadline is still in the future.
func (c *Creature) ApplyPendingRespawn(at time.Time) {
	c.respawnTime = at
	c.setDeathStateBase(DeathStateDead)
	c.SetDespawnInvisible(true)
}

// DespawnOrUnsummon despawns, delegating temporary summons to immediate
// removal without arming a respawn.
func (c *Creature) DespawnOrUnsummon(delay, forceRespawnTimer time.Duration) {
	if c.isTempSummon {
		c.Unsummon(delay)
		return
	}
	c.ForcedDespawn(delay, forceRespawnTimer)
}

// Unsummon removes a temporary summon from the world.
func (c *Creature) Unsummon(delay time.Duration) {
	if delay > 0 {
		c.events.Schedule(delay, ClosureEvent{Fn: func() { c.Unsummon(0) }})
		return
	}
	c.events.KillAllEvents()
	c.SetDespawnInvisible(true)
	if ctx := c.Context(); ctx != nil {
		ctx.ObjectDestroyedForNearby(&c.WorldObject)
	}
	c.RemoveFromWorld()
}

// Aggro radius: 1 yard per level of advantage over the target, anchored at
// the 20-yard baseline and clamped to [5, 45] with the level difference
// capped at 25 either way.
func (c *Creature) AggroRange(target *Unit) float32 {
	if target == nil {
		return 0
	}
	levelDiff := int32(c.LevelForTarget(&target.WorldObject)) - int32(target.LevelForTarget(&c.WorldObject))
	if levelDiff > aggroLevelDiffCap {
		levelDiff = aggroLevelDiffCap
	} else if levelDiff < -aggroLevelDiffCap {
		levelDiff = -aggroLevelDiffCap
	}
	r := float32(aggroRangeBase) + float32(levelDiff)*aggroYardsPerLevel
	if r < aggroRangeMin {
		return aggroRangeMin
	}
	if r > aggroRangeMax {
		return aggroRangeMax
	}
	return r
}

// Engagement lifecycle.

// EngageWithTarget registers threat and enters the engagement lifecycle if
// not already fighting.
func (c *Creature) EngageWithTarget(target *Unit) {
	if target == nil || !c.IsAlive() {
		return
	}
	c.threat.AddThreat(target, 0)
	if !c.engaged {
		c.AtEngage(target)
	}
}

// AtEngage runs once when combat starts: dismount, anchor home, notify AI
// and formation, and optionally drag whole parties into the fight.
func (c *Creature) AtEngage(target *Unit) {
	c.engaged = true
	c.SetInCombat(true)

	if c.IsMounted() && !c.staticFlags.Has(StaticFlagAllowMountedCombat) {
		c.Dismount()
	}
	if target != nil && target.IsControlledByPlayer() {
		c.AddUnitState(UnitStateAttackPlayer)
	}
	if c.aiEnabled {
		c.ai.JustEngagedWith(target)
	}
	if c.formation != nil && target != nil {
		c.formation.MemberEngagingTarget(c, target)
	}
	if c.staticFlags.Has(StaticFlagForcePartyInCombat) && target != nil {
		c.forcePartyIntoCombat(target)
	}
	c.CallForHelp(0)
}

// forcePartyIntoCombat walks the target's group and engages every member on
// the same map.
func (c *Creature) forcePartyIntoCombat(target *Unit) {
	tp := target.AffectingPlayer()
	ctx := c.Context()
	if tp == nil || tp.GroupID() == 0 || ctx == nil {
		return
	}
	ctx.ForEachInRange(c.Position(), ctx.VisibilityRange(), func(obj *WorldObject) bool {
		if p, ok := obj.Data.(*Player); ok && p.IsInSameGroupWith(tp) && p.IsAlive() {
			c.threat.AddThreat(&p.Unit, 0)
			p.SetInCombat(true)
		}
		return true
	})
}

// AtDisengage runs when combat ends.
func (c *Creature) AtDisengage() {
	c.engaged = false
	c.alreadyCalledAssist = false
	c.hasSearchedAssistance = false
	c.ClearUnitState(UnitStateAttackPlayer)
	if c.IsAlive() && c.HasDynamicFlag(DynFlagTapped) {
		c.RemoveDynamicFlag(DynFlagTapped)
	}
}

// Target selection.

// SelectVictim elects the next combat target, or nil with an evade reason
// when no candidate survives validation.
func (c *Creature) SelectVictim() *Unit {
	var target *Unit
	if !c.threat.IsEmpty() {
		target = c.threat.CurrentVictim()
	} else {
		// Passive holders fall back to whoever attacks them or their owner.
		target = c.firstAttackerOfOwnerChain()
	}
	if target != nil && c.CanCreatureAttack(target) {
		return target
	}

	if c.aiEnabled {
		if c.Invisibility().Flags() != 0 {
			c.ai.EnterEvadeMode(EvadeReasonOther)
		} else {
			c.ai.EnterEvadeMode(EvadeReasonNoHostiles)
		}
	}
	return nil
}

func (c *Creature) firstAttackerOfOwnerChain() *Unit {
	ctx := c.Context()
	if ctx == nil {
		return nil
	}
	candidates := c.Attackers()
	if owner := c.CharmerOrOwner(); owner != nil {
		candidates = append(candidates, owner.Attackers()...)
	}
	for _, g := range candidates {
		obj := ctx.FindWorldObject(g)
		if obj == nil {
			continue
		}
		if u := UnitFromObject(obj); u != nil && u.IsAlive() {
			return u
		}
	}
	return nil
}

// CanCreatureAttack validates a victim candidate: liveness, map membership,
// AI veto, evade state and the leash bound back to home.
func (c *Creature) CanCreatureAttack(target *Unit) bool {
	if target == nil || !target.IsAlive() {
		return false
	}
	if !c.InMap(&target.WorldObject) {
		return false
	}
	if !c.IsValidAttackTarget(target, nil) {
		return false
	}
	if c.aiEnabled && !c.ai.CanAIAttack(target) {
		return false
	}
	if c.IsInEvadeMode() {
		return false
	}
	// World bosses never leash.
	if c.IsWorldBoss() {
		return true
	}
	leash := c.AggroRange(target) + c.wanderDist + defaultLeashSlack
	return c.homePosition.IsWithinDist(target.Position(), leash)
}

// defaultLeashSlack pads the home-distance bound so melee shuffling does not
// trigger spurious evades.
const defaultLeashSlack float32 = 30.0

// CanStartAttack gates proximity aggro: the target must be detectable with
// alert semantics and inside the aggro radius.
func (c *Creature) CanStartAttack(target *Unit, force bool) bool {
	if target == nil || !c.IsAlive() || c.IsInEvadeMode() {
		return false
	}
	if !c.IsValidAttackTarget(target, nil) {
		return false
	}
	if !force {
		if !c.IsWithinDist(&target.WorldObject, c.AggroRange(target)) {
			return false
		}
		if !c.CanSeeOrDetect(&target.WorldObject, false, true, true) {
			return false
		}
	}
	return c.IsWithinLOSInMap(&target.WorldObject)
}

// SelectNearestTarget returns the closest attackable unit within range.
func (c *Creature) SelectNearestTarget(radius float32) *Unit {
	ctx := c.Context()
	if ctx == nil {
		return nil
	}
	var nearest *Unit
	var best float32 = math.MaxFloat32
	ctx.ForEachInRange(c.Position(), radius, func(obj *WorldObject) bool {
		u := UnitFromObject(obj)
		if u == nil || !u.IsAlive() || !c.IsValidAttackTarget(u, nil) {
			return true
		}
		if d := c.GetDistance(obj); d < best {
			best = d
			nearest = u
		}
		return true
	})
	return nearest
}

// Assistance.

// CanAssistTo reports whether this creature may come to friend's aid against
// enemy.
func (c *Creature) CanAssistTo(friend *Creature, enemy *Unit, checkFaction bool) bool {
	if friend == nil || enemy == nil {
		return false
	}
	if !c.IsAlive() || c.IsInCombat() || c.IsInEvadeMode() {
		return false
	}
	if c.HasUnitFlag(UnitFlagNonAttackable | UnitFlagNotSelectable) {
		return false
	}
	if checkFaction && c.Faction() != friend.Faction() {
		return false
	}
	if !c.IsFriendlyTo(&friend.Unit) {
		return false
	}
	return c.IsValidAttackTarget(enemy, nil)
}

// CallAssistance shouts for nearby idle friends: they gather now and charge
// after a short delay. Fires at most once per engagement.
func (c *Creature) CallAssistance() {
	if c.alreadyCalledAssist || c.hasSearchedAssistance || !c.IsAlive() {
		return
	}
	victim := c.currentVictimUnit()
	ctx := c.Context()
	if victim == nil || ctx == nil {
		return
	}
	c.alreadyCalledAssist = true

	var helpers []ObjectGuid
	ctx.ForEachInRange(c.Position(), assistanceRadius, func(obj *WorldObject) bool {
		if helper, ok := obj.Data.(*Creature); ok && helper != c {
			if helper.CanAssistTo(c, victim, true) {
				helpers = append(helpers, helper.GUID())
			}
		}
		return true
	})
	if len(helpers) == 0 {
		// An empty sweep is remembered so the shout is not retried every
		// threat-update interval.
		c.SetNoSearchAssistance(true)
		return
	}
	c.events.Schedule(assistanceDelay, &AssistDelayEvent{
		Victim:  victim.GUID(),
		Owner:   c,
		Helpers: helpers,
	})
}

// SetNoSearchAssistance records whether the assistance sweep already ran dry
// for the current engagement.
func (c *Creature) SetNoSearchAssistance(searched bool) { c.hasSearchedAssistance = searched }

// HasSearchedAssistance reports a dry assistance sweep this engagement.
func (c *Creature) HasSearchedAssistance() bool { return c.hasSearchedAssistance }

// CallForHelp immediately engages nearby friends against the current victim.
func (c *Creature) CallForHelp(radius float32) {
	victim := c.currentVictimUnit()
	ctx := c.Context()
	if victim == nil || ctx == nil {
		return
	}
	if radius <= 0 {
		radius = callForHelpRange
	}
	ctx.ForEachInRange(c.Position(), radius, func(obj *WorldObject) bool {
		if helper, ok := obj.Data.(*Creature); ok && helper != c {
			if helper.CanAssistTo(c, victim, false) {
				helper.EngageWithTarget(victim)
			}
		}
		return true
	})
}

func (c *Creature) currentVictimUnit() *Unit {
	if v := c.threat.CurrentVictim(); v != nil {
		return v
	}
	ctx := c.Context()
	if ctx == nil || c.Attacking().IsEmpty() {
		return nil
	}
	if obj := ctx.FindWorldObject(c.Attacking()); obj != nil {
		return UnitFromObject(obj)
	}
	return nil
}

// Loot tapping.

// SetLootRecipient grants loot rights to unit's controlling player, and with
// withGroup set, snapshots the player's group as co-recipient.
func (c *Creature) SetLootRecipient(unit *Unit, withGroup bool) {
	if unit == nil {
		c.lootRecipient = EmptyGuid
		c.lootRecipientGroup = 0
		c.RemoveDynamicFlag(DynFlagTapped)
		return
	}
	player := unit.AffectingPlayer()
	if player == nil {
		return
	}
	c.lootRecipient = player.GUID()
	if withGroup {
		c.lootRecipientGroup = player.GroupID()
	} else {
		c.lootRecipientGroup = 0
	}
	c.SetDynamicFlag(DynFlagTapped)
}

// LootRecipientGUID returns the tapping player's guid.
func (c *Creature) LootRecipientGUID() ObjectGuid { return c.lootRecipient }

// LootRecipientGroupID returns the tapping group's id, 0 when solo-tapped.
func (c *Creature) LootRecipientGroupID() uint32 { return c.lootRecipientGroup }

// HasLootRecipient reports an active tap.
func (c *Creature) HasLootRecipient() bool {
	return !c.lootRecipient.IsEmpty() || c.lootRecipientGroup != 0
}

// IsTappedBy reports whether p holds loot rights, directly or through the
// snapshotted group.
func (c *Creature) IsTappedBy(p *Player) bool {
	if p == nil || !c.HasLootRecipient() {
		return false
	}
	if p.GUID() == c.lootRecipient {
		return true
	}
	return c.lootRecipientGroup != 0 && p.GroupID() == c.lootRecipientGroup
}

// StartGroupLootRoll arms the group-loot countdown; on expiry the resolver
// force-finishes the roll.
func (c *Creature) StartGroupLootRoll(timer time.Duration, resolve func()) {
	c.groupLootTimer = timer
	c.lootRollResolve = resolve
}

// PlayerDamageReq tracks how much player damage is still required before the
// kill credits players.
func (c *Creature) PlayerDamageReq() uint32 { return c.playerDamageReq }

// SetPlayerDamageReq sets the remaining required player damage.
func (c *Creature) SetPlayerDamageReq(v uint32) { c.playerDamageReq = v }

// ResetPlayerDamageReq rearms the requirement at half of max health.
func (c *Creature) ResetPlayerDamageReq() { c.playerDamageReq = c.MaxHealth() / 2 }

// Spell-cast focus.

// SetSpellFocus locks facing on target for the duration of a cast.
func (c *Creature) SetSpellFocus(spellID uint32, target ObjectGuid) {
	c.spellFocusID = spellID
	c.spellFocusTarget = target
	c.hasSpellFocus = true
}

// HasSpellFocus reports an active cast focus.
func (c *Creature) HasSpellFocus() bool { return c.hasSpellFocus }

// ReleaseSpellFocus drops the cast focus. Calling without an active focus is
// an upstream bug; it is logged and ignored.
func (c *Creature) ReleaseSpellFocus() {
	if !c.hasSpellFocus {
		slog.Warn("spell focus released while not focused",
			"guid", c.GUID(), "entry", c.Entry())
		return
	}
	c.hasSpellFocus = false
	c.spellFocusID = 0
	c.spellFocusTarget = EmptyGuid
}

// ReleaseSpellFocusIfAny drops the focus without the invariant warning.
func (c *Creature) ReleaseSpellFocusIfAny() {
	if c.hasSpellFocus {
		c.ReleaseSpellFocus()
	}
}

// ReacquireSpellFocusTarget restores the unit target after a cast. Calling
// without focus is logged and ignored.
func (c *Creature) ReacquireSpellFocusTarget() {
	if !c.hasSpellFocus {
		slog.Warn("spell focus reacquired while not focused",
			"guid", c.GUID(), "entry", c.Entry())
		return
	}
	c.SetTarget(c.spellFocusTarget)
	c.ReleaseSpellFocus()
}

// Reachability.

// SetCannotReachTarget arms or clears the no-path evade accumulator.
func (c *Creature) SetCannotReachTarget(cannot bool) {
	if cannot == c.cannotReachTarget {
		return
	}
	c.cannotReachTarget = cannot
	c.cannotReachTimer = 0
}

// CannotReachTarget reports the no-path condition.
func (c *Creature) CannotReachTarget() bool { return c.cannotReachTarget }

// Persistence.

// BuildSaveData assembles the spawn record for persistence, normalizing
// overrides that merely restate template defaults back to zero.
func (c *Creature) BuildSaveData() CreatureData {
	data := CreatureData{
		SpawnID:       c.spawnID,
		Entry:         c.Entry(),
		SpawnPoint:    c.Position(),
		SpawnTimeSecs: c.respawnDelay,
		WanderDist:    c.wanderDist,
		CurHealth:     c.Health(),
		CurMana:       c.Power(),
		EquipmentID:   c.equipmentID,
	}
	if ctx := c.Context(); ctx != nil {
		data.MapID = ctx.MapID()
	}
	if c.data != nil {
		data.MovementType = c.data.MovementType
		data.SpawnGroupID = c.data.SpawnGroupID
		data.PhaseMask = c.data.PhaseMask
	}

	// Display that matches a template model is redundant; store zero.
	if c.template.ModelWithDisplayID(c.DisplayID()) == nil {
		data.DisplayID = c.DisplayID()
	}
	if f := c.NpcFlags(); f != c.template.NpcFlags {
		data.NpcFlags = &f
	}
	if f := c.UnitFlags(); f != c.template.UnitFlags {
		data.UnitFlags = &f
	}
	if f := c.DynamicFlags(); f != 0 {
		data.DynamicFlags = &f
	}
	return data
}

// Teardown cancels all pending events ahead of removal from the map. Any
// event firing after this point is a logic error upstream.
func (c *Creature) Teardown() {
	c.events.KillAllEvents()
	c.threat.Clear()
}
