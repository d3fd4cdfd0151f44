package model

// Player flag bits (PlayerFieldFlags).
const (
	PlayerFlagsGroupLeader uint32 = 1 << 0
	PlayerFlagsGM          uint32 = 1 << 3
	PlayerFlagsGhost       uint32 = 1 << 4
	PlayerFlagsResting     uint32 = 1 << 5
)

// Team identifiers.
const (
	TeamAlliance uint32 = 67
	TeamHorde    uint32 = 469
)

// Player is the player-character entity. Only the slice of player state the
// simulation core consumes lives here: group/team membership, GM and ghost
// visibility, duel and forced-reaction state. Session, inventory and spell
// handling belong to external collaborators.
type Player struct {
	Unit

	groupID uint32
	team    uint32

	gmLevel uint8

	duelArbiter  ObjectGuid
	duelOpponent ObjectGuid

	corpseLocation Position
	hasCorpse      bool

	// viewpoint is the possessed/observed body, empty when seeing through
	// own eyes
	viewpoint ObjectGuid

	forcedReactions map[uint32]ReputationRank
	reputations     map[uint32]ReputationRank
}

// NewPlayer creates a player entity with the given character counter.
func NewPlayer(counter uint64, name string, team uint32) *Player {
	p := &Player{
		team:            team,
		forcedReactions: make(map[uint32]ReputationRank),
		reputations:     make(map[uint32]ReputationRank),
	}
	p.initUnit(TypeIDPlayer, NewPlayerGuid(counter), TypeMaskPlayer, name)
	p.SetUnitFlag(UnitFlagPlayerControlled)
	p.SetLevel(1)
	p.SetMaxHealth(100)
	p.SetFullHealth()
	p.values.ClearChanges()
	p.Data = p
	return p
}

// GroupID returns the player's group id, 0 when ungrouped.
func (p *Player) GroupID() uint32 { return p.groupID }

// SetGroupID places the player in a group (0 leaves).
func (p *Player) SetGroupID(id uint32) { p.groupID = id }

// IsInSameGroupWith reports shared group membership.
func (p *Player) IsInSameGroupWith(other *Player) bool {
	return other != nil && p.groupID != 0 && p.groupID == other.groupID
}

// Team returns the player's team.
func (p *Player) Team() uint32 { return p.team }

// GM state. A game master gains GM-level server-side invisibility and equal
// detection; visibility against other GMs compares levels.

// IsGameMaster reports whether GM mode is on.
func (p *Player) IsGameMaster() bool { return p.hasFlag(PlayerFieldFlags, PlayerFlagsGM) }

// GMLevel returns the GM security level.
func (p *Player) GMLevel() uint8 { return p.gmLevel }

// SetGameMaster toggles GM mode at the given security level.
func (p *Player) SetGameMaster(on bool, level uint8) {
	if on {
		p.gmLevel = level
		p.setFlag(PlayerFieldFlags, PlayerFlagsGM)
		p.serverSideVisibility.SetValue(ServerSideVisibilityGM, int32(level))
		p.serverSideVisibilityDetect.SetValue(ServerSideVisibilityGM, int32(level))
	} else {
		p.gmLevel = 0
		p.removeFlag(PlayerFieldFlags, PlayerFlagsGM)
		p.serverSideVisibility.SetValue(ServerSideVisibilityGM, 0)
		p.serverSideVisibilityDetect.SetValue(ServerSideVisibilityGM, 0)
	}
}

// Ghost state. A dead player released to ghost form keeps positive health but
// carries the DEAD death state; ghost visibility channels flip so that only
// ghost-detecting viewers (and same-team grouped players) perceive them.

// IsGhost reports ghost form.
func (p *Player) IsGhost() bool { return p.hasFlag(PlayerFieldFlags, PlayerFlagsGhost) }

// SetGhost toggles ghost form and the ghost visibility/detection channels.
func (p *Player) SetGhost(on bool) {
	if on {
		p.setFlag(PlayerFieldFlags, PlayerFlagsGhost)
		p.serverSideVisibility.SetValue(ServerSideVisibilityGhost, int32(GhostVisibilityGhost))
		p.serverSideVisibilityDetect.SetValue(ServerSideVisibilityGhost, int32(GhostVisibilityGhost))
	} else {
		p.removeFlag(PlayerFieldFlags, PlayerFlagsGhost)
		p.serverSideVisibility.SetValue(ServerSideVisibilityGhost, int32(GhostVisibilityAlive))
		p.serverSideVisibilityDetect.SetValue(ServerSideVisibilityGhost, int32(GhostVisibilityAlive))
	}
}

// Corpse location, used by the ghost-near-corpse visibility carve-out.

// SetCorpseLocation records where the player's corpse lies.
func (p *Player) SetCorpseLocation(pos Position) {
	p.corpseLocation = pos
	p.hasCorpse = true
}

// ClearCorpse drops the corpse record (after resurrection).
func (p *Player) ClearCorpse() { p.hasCorpse = false }

// HasCorpse reports whether a corpse record exists.
func (p *Player) HasCorpse() bool { return p.hasCorpse }

// CorpseLocation returns the recorded corpse position.
func (p *Player) CorpseLocation() Position { return p.corpseLocation }

// Viewpoint resolution: a player possessing or observing another body sees
// from that body's position.

// SetViewpoint binds the player's senses to another entity (empty restores).
func (p *Player) SetViewpoint(g ObjectGuid) { p.viewpoint = g }

// Seer returns the entity whose position distance checks use.
func (p *Player) Seer() *WorldObject {
	if p.viewpoint.IsEmpty() || p.ctx == nil {
		return &p.WorldObject
	}
	if obj := p.ctx.FindWorldObject(p.viewpoint); obj != nil {
		return obj
	}
	return &p.WorldObject
}

// Duel state.

// SetDuel records an active duel against opponent under arbiter.
func (p *Player) SetDuel(arbiter, opponent ObjectGuid) {
	p.duelArbiter = arbiter
	p.duelOpponent = opponent
}

// ClearDuel ends the duel.
func (p *Player) ClearDuel() {
	p.duelArbiter = EmptyGuid
	p.duelOpponent = EmptyGuid
}

// IsDuelingWith reports an active started duel against other.
func (p *Player) IsDuelingWith(other *Player) bool {
	return other != nil && !p.duelArbiter.IsEmpty() && p.duelOpponent == other.GUID()
}

// Forced reactions override faction-template resolution in both directions.

// SetForcedReaction pins the reaction toward a faction.
func (p *Player) SetForcedReaction(factionID uint32, rank ReputationRank) {
	p.forcedReactions[factionID] = rank
}

// RemoveForcedReaction unpins a faction reaction.
func (p *Player) RemoveForcedReaction(factionID uint32) {
	delete(p.forcedReactions, factionID)
}

// ForcedReactionFor returns the pinned reaction toward a faction, if any.
func (p *Player) ForcedReactionFor(factionID uint32) (ReputationRank, bool) {
	r, ok := p.forcedReactions[factionID]
	return r, ok
}

// Reputation ranks refine faction-template resolution for trackable factions.

// SetReputationRank records the earned standing with a faction.
func (p *Player) SetReputationRank(factionID uint32, rank ReputationRank) {
	p.reputations[factionID] = rank
}

// ReputationRankFor returns the earned standing, if tracked.
func (p *Player) ReputationRankFor(factionID uint32) (ReputationRank, bool) {
	r, ok := p.reputations[factionID]
	return r, ok
}
