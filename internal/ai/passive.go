package ai

import (
	"time"

	"github.com/openwow/wowgo/internal/model"
)

// PassiveAI never initiates combat; it only answers damage already tracked on
// the threat list.
type PassiveAI struct {
	*BaseAI
}

// NewPassiveAI creates the docile behavior.
func NewPassiveAI(c *model.Creature) *PassiveAI {
	return &PassiveAI{BaseAI: NewBaseAI(c)}
}

func (ai *PassiveAI) UpdateAI(diff time.Duration) {
	me := ai.Me()
	if !me.IsEngaged() && me.ThreatManager().IsEmpty() {
		return
	}
	if !me.IsEngaged() {
		if v := me.ThreatManager().CurrentVictim(); v != nil {
			me.EngageWithTarget(v)
		}
	}
	if !ai.updateVictim() {
		return
	}
	ai.doMeleeAttackIfReady()
}
