package model

// CreatureFormation coordinates a leader and its followers: engagement
// propagates from any member to the rest, and the formation disbands when the
// leader dies. Touched only from the owning map's update goroutine.
type CreatureFormation struct {
	leader  ObjectGuid
	members map[ObjectGuid]*Creature
}

// NewCreatureFormation creates a formation led by leader.
func NewCreatureFormation(leader *Creature) *CreatureFormation {
	f := &CreatureFormation{
		leader:  leader.GUID(),
		members: make(map[ObjectGuid]*Creature),
	}
	f.AddMember(leader)
	return f
}

// LeaderGUID returns the leader's guid.
func (f *CreatureFormation) LeaderGUID() ObjectGuid { return f.leader }

// AddMember registers a creature with the formation.
func (f *CreatureFormation) AddMember(c *Creature) {
	f.members[c.GUID()] = c
	c.formation = f
}

// RemoveMember unregisters a creature.
func (f *CreatureFormation) RemoveMember(c *Creature) {
	delete(f.members, c.GUID())
	c.formation = nil
}

// IsLeader reports whether c leads this formation.
func (f *CreatureFormation) IsLeader(c *Creature) bool { return f.leader == c.GUID() }

// Size returns the member count.
func (f *CreatureFormation) Size() int { return len(f.members) }

// MemberEngagingTarget pulls every other live, idle member into combat
// against target.
func (f *CreatureFormation) MemberEngagingTarget(engager *Creature, target *Unit) {
	for g, m := range f.members {
		if g == engager.GUID() {
			continue
		}
		if !m.IsAlive() || m.IsInCombat() {
			continue
		}
		if m.IsValidAttackTarget(target, nil) {
			m.EngageWithTarget(target)
		}
	}
}

// MemberDied handles a member death: a dead leader disbands the whole
// formation.
func (f *CreatureFormation) MemberDied(c *Creature) {
	if f.IsLeader(c) {
		f.Disband()
		return
	}
	f.RemoveMember(c)
}

// Disband detaches every member.
func (f *CreatureFormation) Disband() {
	for _, m := range f.members {
		m.formation = nil
	}
	f.members = make(map[ObjectGuid]*Creature)
}
