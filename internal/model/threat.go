package model

// ThreatManager tracks accumulated hostility toward a creature's attackers
// and elects the current victim. Owned by the creature, touched only from its
// map's update goroutine.
type ThreatManager struct {
	owner  *Unit
	threat map[ObjectGuid]float32
	order  []ObjectGuid
}

func newThreatManager(owner *Unit) *ThreatManager {
	return &ThreatManager{
		owner:  owner,
		threat: make(map[ObjectGuid]float32),
	}
}

// AddThreat accrues threat against target, registering it on first contact.
func (tm *ThreatManager) AddThreat(target *Unit, amount float32) {
	if target == nil || target.GUID() == tm.owner.GUID() {
		return
	}
	g := target.GUID()
	if _, ok := tm.threat[g]; !ok {
		tm.order = append(tm.order, g)
		target.RegisterAttacker(tm.owner.GUID())
	}
	tm.threat[g] += amount
	if tm.threat[g] < 0 {
		tm.threat[g] = 0
	}
}

// ModifyThreatPct scales an existing entry by pct (-100 zeroes it).
func (tm *ThreatManager) ModifyThreatPct(target *Unit, pct int32) {
	if target == nil {
		return
	}
	if v, ok := tm.threat[target.GUID()]; ok {
		tm.threat[target.GUID()] = v * (1 + float32(pct)/100)
	}
}

// Remove drops a target from the list.
func (tm *ThreatManager) Remove(g ObjectGuid) {
	if _, ok := tm.threat[g]; !ok {
		return
	}
	delete(tm.threat, g)
	for i, o := range tm.order {
		if o == g {
			tm.order = append(tm.order[:i], tm.order[i+1:]...)
			break
		}
	}
}

// Clear empties the list.
func (tm *ThreatManager) Clear() {
	tm.threat = make(map[ObjectGuid]float32)
	tm.order = tm.order[:0]
}

// IsEmpty reports an empty threat list.
func (tm *ThreatManager) IsEmpty() bool { return len(tm.threat) == 0 }

// Size returns the number of hostile references.
func (tm *ThreatManager) Size() int { return len(tm.threat) }

// ThreatOf returns the accumulated threat against target.
func (tm *ThreatManager) ThreatOf(g ObjectGuid) float32 { return tm.threat[g] }

// HostileGUIDs returns the registered targets in registration order.
func (tm *ThreatManager) HostileGUIDs() []ObjectGuid {
	out := make([]ObjectGuid, len(tm.order))
	copy(out, tm.order)
	return out
}

// CurrentVictim elects the highest-threat target still present in the world
// and attackable. Unreachable entries are pruned as a side effect.
func (tm *ThreatManager) CurrentVictim() *Unit {
	ctx := tm.owner.Context()
	if ctx == nil {
		return nil
	}
	var best *Unit
	var bestThreat float32 = -1
	var stale []ObjectGuid
	for g, v := range tm.threat {
		obj := ctx.FindWorldObject(g)
		if obj == nil {
			stale = append(stale, g)
			continue
		}
		u := UnitFromObject(obj)
		if u == nil || !u.IsAlive() {
			stale = append(stale, g)
			continue
		}
		if !tm.owner.IsValidAttackTarget(u, nil) {
			continue
		}
		if v > bestThreat {
			best = u
			bestThreat = v
		}
	}
	for _, g := range stale {
		tm.Remove(g)
	}
	return best
}
