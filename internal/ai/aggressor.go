package ai

import (
	"time"

	"github.com/openwow/wowgo/internal/model"
)

// AggressorAI attacks anything hostile that wanders inside the aggro radius
// and fights threat-driven once engaged.
type AggressorAI struct {
	*BaseAI
}

// NewAggressorAI creates the default hostile behavior.
func NewAggressorAI(c *model.Creature) *AggressorAI {
	return &AggressorAI{BaseAI: NewBaseAI(c)}
}

func (ai *AggressorAI) UpdateAI(diff time.Duration) {
	me := ai.Me()
	if me.IsEngaged() {
		if !ai.updateVictim() {
			return
		}
		ai.doMeleeAttackIfReady()
		return
	}

	ai.scanTimer += diff
	if ai.scanTimer < scanInterval {
		return
	}
	ai.scanTimer = 0
	ai.scanForTargets()
}

// scanForTargets sweeps the aggro radius, feeding each candidate through the
// line-of-sight hook so scripted overrides see the same path as the map's
// relocation notifications.
func (ai *AggressorAI) scanForTargets() {
	me := ai.Me()
	ctx := me.Context()
	if ctx == nil {
		return
	}
	maxRange := me.AggroRange(nil)
	if maxRange <= 0 {
		maxRange = 45
	}
	ctx.ForEachInRange(me.Position(), maxRange, func(obj *model.WorldObject) bool {
		who := model.UnitFromObject(obj)
		if who == nil || who.GUID() == me.GUID() {
			return true
		}
		ai.MoveInLineOfSight(who)
		return !me.IsEngaged()
	})
}

// MoveInLineOfSight is the proximity-aggro hook: engage immediately when an
// eligible unit walks into range.
func (ai *AggressorAI) MoveInLineOfSight(who *model.Unit) {
	me := ai.Me()
	if me.IsEngaged() || who == nil {
		return
	}
	if me.CanStartAttack(who, false) {
		me.EngageWithTarget(who)
	}
}
