package ai

import (
	"log/slog"
	"time"

	"github.com/openwow/wowgo/internal/model"
)

// scanInterval spaces proximity-aggro sweeps so idle creatures stay cheap.
const scanInterval = 1200 * time.Millisecond

// BaseAI carries the bookkeeping shared by every behavior: evade handling,
// the proximity scan timer and the default lifecycle hooks. Concrete
// behaviors embed it and override what they need.
type BaseAI struct {
	me *model.Creature

	scanTimer time.Duration
}

// NewBaseAI wraps a creature.
func NewBaseAI(c *model.Creature) *BaseAI {
	return &BaseAI{me: c}
}

// Me returns the controlled creature.
func (ai *BaseAI) Me() *model.Creature { return ai.me }

// JustAppeared fires once after creation or respawn.
func (ai *BaseAI) JustAppeared() {}

// Reset restores scripted state.
func (ai *BaseAI) Reset() {}

// UpdateAI does nothing in the base.
func (ai *BaseAI) UpdateAI(diff time.Duration) {}

// JustEngagedWith fires on combat start.
func (ai *BaseAI) JustEngagedWith(target *model.Unit) {}

// JustDied fires after the death transition.
func (ai *BaseAI) JustDied(killer *model.Unit) {}

// EnterEvadeMode drops combat, clears the threat list and walks home.
func (ai *BaseAI) EnterEvadeMode(reason model.EvadeReason) {
	me := ai.me
	if me.IsInEvadeMode() {
		return
	}
	slog.Debug("creature evading",
		"guid", me.GUID(), "entry", me.Entry(), "reason", reason)

	me.AddUnitState(model.UnitStateEvade)
	me.ThreatManager().Clear()
	me.SetTarget(model.EmptyGuid)
	me.SetInCombat(false)
	me.AtDisengage()
	me.SetCannotReachTarget(false)

	me.Relocate(me.HomePosition())
	me.SetFullHealth()
	me.ClearUnitState(model.UnitStateEvade)
	ai.Reset()
}

// CorpseRemoved leaves the respawn delay untouched.
func (ai *BaseAI) CorpseRemoved(delay time.Duration) time.Duration { return delay }

// MoveInLineOfSight does nothing in the base.
func (ai *BaseAI) MoveInLineOfSight(who *model.Unit) {}

// CheckInRoom passes without scripted boundaries.
func (ai *BaseAI) CheckInRoom() bool { return true }

// CanAIAttack accepts every candidate.
func (ai *BaseAI) CanAIAttack(target *model.Unit) bool { return true }

// CanSeeAlways grants nothing extra.
func (ai *BaseAI) CanSeeAlways(obj *model.WorldObject) bool { return false }

// updateVictim re-elects the victim and reports whether combat continues.
func (ai *BaseAI) updateVictim() bool {
	me := ai.me
	if !me.IsEngaged() {
		return false
	}
	victim := me.SelectVictim()
	if victim == nil {
		return false
	}
	me.SetTarget(victim.GUID())
	me.SetAttacking(victim.GUID())
	me.CallAssistance()
	return true
}

// doMeleeAttackIfReady lands a swing when the victim is inside combat reach.
func (ai *BaseAI) doMeleeAttackIfReady() {
	me := ai.me
	ctx := me.Context()
	if ctx == nil || me.Attacking().IsEmpty() {
		return
	}
	obj := ctx.FindWorldObject(me.Attacking())
	if obj == nil {
		return
	}
	victim := model.UnitFromObject(obj)
	if victim == nil {
		return
	}
	if !me.IsWithinCombatReach(victim) {
		me.SetCannotReachTarget(!ctx.InLineOfSight(me.Position(), victim.Position()))
		return
	}
	me.SetCannotReachTarget(false)
	me.ThreatManager().AddThreat(victim, 1)
}
