package model

import "math"

// Detection tuning. Gameplay-balance contract constants; do not re-derive.
const (
	stealthDetectBase      = 30   // base detection points at equal level
	stealthPointsPerLevel  = 5    // detection points per level difference
	stealthYardsPerPoint   = 0.3  // yards of detection range per point
	alertRangeScale        = 1.08 // "about to notice" widening factor
	alertRangePad          = 1.5  // flat widening, yards
	aggroRangeBase         = 15.0 // baseline aggro radius, yards
	aggroLevelDiffCap      = 25   // level difference clamp for aggro radius
	aggroRangeMin          = 5.0
	aggroRangeMax          = 45.0
)

// alwaysSeer lets the outermost type grant unconditional sight (creature AI
// "always see" hook, GM-mode overrides).
type alwaysSeer interface {
	CanAlwaysSee(obj *WorldObject) bool
}

// alwaysVisible lets the outermost type declare itself unconditionally
// visible for a given seer.
type alwaysVisible interface {
	IsAlwaysVisibleFor(seer *WorldObject) bool
}

// CanSeeOrDetect is the perception predicate: can w perceive obj. The gate
// order is fixed and short-circuiting; see the test suite for the symmetry
// guarantees it does and does not make.
func (w *WorldObject) CanSeeOrDetect(obj *WorldObject, ignoreStealth, distanceCheck, checkAlert bool) bool {
	if w == obj {
		return true
	}

	if obj.isNeverVisibleFor(w) || w.canNeverSee(obj) {
		return false
	}

	if obj.isAlwaysVisibleFor(w) || w.canAlwaysSee(obj) {
		return true
	}

	// Personal-vision objects are visible only to their owner, objects
	// sharing that owner, and the owner's group.
	if !obj.privateObjectOwner.IsEmpty() {
		if !w.canSeePrivateObject(obj) {
			return false
		}
	}

	corpseVisibility := false
	if distanceCheck {
		if p, ok := w.Data.(*Player); ok {
			// A ghost (dead, positive health) hovering near its own corpse
			// bypasses the normal range gate for objects near that corpse.
			if !p.IsAlive() && p.Health() > 0 && p.HasCorpse() {
				sight := w.SightRange(obj)
				corpse := p.CorpseLocation()
				if corpse.IsWithinDist(w.position, sight) && corpse.IsWithinDist(obj.position, sight) {
					corpseVisibility = true
				}
			}
		}
		if !corpseVisibility {
			viewpoint := w
			if p, ok := w.Data.(*Player); ok {
				viewpoint = p.Seer()
			}
			if !viewpoint.IsWithinDist(obj, w.SightRange(obj)) {
				return false
			}
		}
	}

	// GM gate: GM-invisibility beats any lower detection level.
	if obj.serverSideVisibility.Value(ServerSideVisibilityGM) > w.serverSideVisibilityDetect.Value(ServerSideVisibilityGM) {
		return false
	}

	// Ghost gate: ghost-visibility channels must intersect, unless the
	// corpse carve-out already granted sight.
	ghostFlags := uint32(obj.serverSideVisibility.Value(ServerSideVisibilityGhost))
	ghostDetect := uint32(w.serverSideVisibilityDetect.Value(ServerSideVisibilityGhost))
	if ghostFlags&ghostDetect == 0 && !corpseVisibility {
		if !w.canSeeGroupedGhost(obj) {
			return false
		}
	}

	if obj.IsInvisibleDueToDespawn() {
		return false
	}

	if !ignoreStealth && !w.canDetect(obj, checkAlert) {
		return false
	}
	return true
}

func (w *WorldObject) isNeverVisibleFor(_ *WorldObject) bool {
	return !w.IsInWorld()
}

func (w *WorldObject) canNeverSee(obj *WorldObject) bool {
	if w.ctx != nil && obj.ctx != nil && w.ctx != obj.ctx {
		return true
	}
	return !w.InSamePhase(obj)
}

func (w *WorldObject) isAlwaysVisibleFor(seer *WorldObject) bool {
	if v, ok := w.Data.(alwaysVisible); ok && v.IsAlwaysVisibleFor(seer) {
		return true
	}
	// A controller always perceives its own minions.
	if u := UnitFromObject(w); u != nil {
		if g := u.CharmerOrOwnerGUID(); !g.IsEmpty() && g == seer.GUID() {
			return true
		}
	}
	return false
}

func (w *WorldObject) canAlwaysSee(obj *WorldObject) bool {
	if v, ok := w.Data.(alwaysSeer); ok && v.CanAlwaysSee(obj) {
		return true
	}
	return false
}

func (w *WorldObject) canSeePrivateObject(obj *WorldObject) bool {
	owner := obj.privateObjectOwner
	if w.GUID() == owner {
		return true
	}
	if w.privateObjectOwner == owner {
		return true
	}
	if w.ctx != nil {
		if ownerObj := w.ctx.FindWorldObject(owner); ownerObj != nil {
			op, okO := ownerObj.Data.(*Player)
			wp, okW := w.Data.(*Player)
			if okO && okW && wp.IsInSameGroupWith(op) {
				return true
			}
		}
	}
	return false
}

// canSeeGroupedGhost: a living player still sees a dead groupmate of the same
// team.
func (w *WorldObject) canSeeGroupedGhost(obj *WorldObject) bool {
	wp, okW := w.Data.(*Player)
	op, okO := obj.Data.(*Player)
	if !okW || !okO {
		return false
	}
	return wp.Team() == op.Team() && wp.IsInSameGroupWith(op)
}

// canDetect resolves stealth and invisibility. Controlled minions borrow
// their controller's senses.
func (w *WorldObject) canDetect(obj *WorldObject, checkAlert bool) bool {
	seer := w
	if u := UnitFromObject(w); u != nil {
		if owner := u.CharmerOrOwner(); owner != nil {
			seer = &owner.WorldObject
		}
	}
	if !seer.canDetectInvisibilityOf(obj) {
		return false
	}
	return seer.canDetectStealthOf(obj, checkAlert)
}

// canDetectInvisibilityOf is all-or-nothing across invisibility channels:
// every active channel needs a matching detection flag with at least the
// channel's magnitude.
func (w *WorldObject) canDetectInvisibilityOf(obj *WorldObject) bool {
	mask := obj.invisibility.Flags()
	if mask == 0 {
		return true
	}
	for t := 0; t < invisibilityTypes; t++ {
		if mask&(1<<t) == 0 {
			continue
		}
		if !w.invisibilityDetect.HasFlag(t) {
			return false
		}
		if obj.invisibility.Value(t) > w.invisibilityDetect.Value(t) {
			return false
		}
	}
	return true
}

// canDetectStealthOf evaluates each active stealth channel independently.
func (w *WorldObject) canDetectStealthOf(obj *WorldObject, checkAlert bool) bool {
	mask := obj.stealth.Flags()
	if mask == 0 {
		return true
	}

	distance := w.position.ExactDist(obj.position)
	var combatReach float32
	seerUnit := UnitFromObject(w)
	if seerUnit != nil {
		combatReach = seerUnit.CombatReach()
	}

	for t := 0; t < stealthTypes; t++ {
		if mask&(1<<t) == 0 {
			continue
		}
		// Inside combat reach stealth never hides.
		if distance < combatReach {
			continue
		}
		// Stealth cannot be spotted from behind; trap detection works
		// regardless of facing.
		if t != StealthTrap && !w.position.HasInArc(math.Pi, obj.position) {
			return false
		}

		seerLevel := int32(0)
		targetLevel := int32(0)
		if seerUnit != nil {
			seerLevel = int32(seerUnit.LevelForTarget(obj))
		}
		if tu := UnitFromObject(obj); tu != nil {
			targetLevel = int32(tu.LevelForTarget(w))
		}

		points := int32(stealthDetectBase) +
			(seerLevel-targetLevel)*stealthPointsPerLevel +
			w.stealthDetect.Value(t) -
			obj.stealth.Value(t)
		visibilityRange := float32(points)*stealthYardsPerPoint + combatReach

		if visibilityRange <= 0 {
			return false
		}

		if checkAlert {
			visibilityRange = visibilityRange*alertRangeScale + alertRangePad
			// Suppress "about to notice" alerts a creature could never act
			// on: the widened range must stay inside its aggro radius.
			if seerUnit != nil {
				if c, ok := seerUnit.Data.(*Creature); ok {
					if tu := UnitFromObject(obj); tu != nil {
						if visibilityRange >= c.AggroRange(tu) {
							return false
						}
					}
				}
			}
		}

		if distance > visibilityRange {
			return false
		}
	}
	return true
}
