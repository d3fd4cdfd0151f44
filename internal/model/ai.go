package model

import "time"

// EvadeReason explains why a creature dropped combat and returned home.
type EvadeReason uint8

const (
	EvadeReasonNoHostiles EvadeReason = iota
	EvadeReasonBoundary
	EvadeReasonNoPath
	EvadeReasonSequence
	EvadeReasonOther
)

func (r EvadeReason) String() string {
	switch r {
	case EvadeReasonNoHostiles:
		return "NO_HOSTILES"
	case EvadeReasonBoundary:
		return "BOUNDARY"
	case EvadeReasonNoPath:
		return "NO_PATH"
	case EvadeReasonSequence:
		return "SEQUENCE"
	default:
		return "OTHER"
	}
}

// CreatureAI is the behavior controller attached to every creature. The
// lifecycle hooks are invoked by the creature's own state machine; the AI
// calls back into the creature for target selection and combat queries.
// Implementations live in the ai package and are selected at construction
// time by template AI name.
type CreatureAI interface {
	// JustAppeared fires once on the first tick after creation or respawn.
	JustAppeared()
	// Reset restores scripted state after an evade or respawn.
	Reset()
	// UpdateAI runs the per-tick behavior while alive.
	UpdateAI(diff time.Duration)
	// JustEngagedWith fires when the creature first enters combat.
	JustEngagedWith(target *Unit)
	// JustDied fires after the death transition completes.
	JustDied(killer *Unit)
	// EnterEvadeMode drops combat and returns the creature home.
	EnterEvadeMode(reason EvadeReason)
	// CorpseRemoved may adjust the pending respawn delay.
	CorpseRemoved(delay time.Duration) time.Duration
	// MoveInLineOfSight fires when a unit enters perception range.
	MoveInLineOfSight(who *Unit)
	// CheckInRoom verifies scripted boundary constraints.
	CheckInRoom() bool
	// CanAIAttack vetoes victim candidates.
	CanAIAttack(target *Unit) bool
	// CanSeeAlways grants unconditional sight of obj.
	CanSeeAlways(obj *WorldObject) bool
}

// aiFactory builds the behavior for a freshly initialized creature, keyed by
// template AI name. Installed once at startup by the ai package; the
// indirection keeps behavior implementations out of this package.
var aiFactory func(c *Creature) CreatureAI

// SetAIFactory installs the shard-wide behavior factory.
func SetAIFactory(f func(c *Creature) CreatureAI) { aiFactory = f }

// NullAI is the inert behavior used when no factory is installed or no
// script matches. Every hook is a no-op.
type NullAI struct{}

func (NullAI) JustAppeared()                                 {}
func (NullAI) Reset()                                        {}
func (NullAI) UpdateAI(time.Duration)                        {}
func (NullAI) JustEngagedWith(*Unit)                         {}
func (NullAI) JustDied(*Unit)                                {}
func (NullAI) EnterEvadeMode(EvadeReason)                    {}
func (NullAI) CorpseRemoved(d time.Duration) time.Duration   { return d }
func (NullAI) MoveInLineOfSight(*Unit)                       {}
func (NullAI) CheckInRoom() bool                             { return true }
func (NullAI) CanAIAttack(*Unit) bool                        { return true }
func (NullAI) CanSeeAlways(*WorldObject) bool                { return false }
