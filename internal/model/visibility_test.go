package model

import (
	"testing"
)

func see(w, obj *WorldObject) bool {
	return w.CanSeeOrDetect(obj, false, true, false)
}

func TestCanSeeOrDetect_Self(t *testing.T) {
	f := newFakeWorld()
	p := newTestPlayer(f, 1)

	if !p.CanSeeOrDetect(&p.WorldObject, false, true, false) {
		t.Error("an entity always perceives itself")
	}
}

func TestCanSeeOrDetect_NotInWorld(t *testing.T) {
	f := newFakeWorld()
	a := newTestPlayer(f, 1)
	b := newTestPlayer(f, 2)

	b.RemoveFromWorld()
	if see(&a.WorldObject, &b.WorldObject) {
		t.Error("an entity outside the world is never visible")
	}
}

func TestCanSeeOrDetect_PhasePartitioning(t *testing.T) {
	f := newFakeWorld()
	a := newTestPlayer(f, 1)
	b := newTestPlayer(f, 2)

	if !see(&a.WorldObject, &b.WorldObject) {
		t.Fatal("same default phase should be mutually visible")
	}

	b.Phase().Clear()
	b.Phase().Add(2)
	if see(&a.WorldObject, &b.WorldObject) {
		t.Error("disjoint phases must not see each other")
	}

	a.Phase().Add(2)
	if !see(&a.WorldObject, &b.WorldObject) {
		t.Error("any shared phase token restores visibility")
	}
}

func TestCanSeeOrDetect_DistanceGate(t *testing.T) {
	f := newFakeWorld()
	a := newTestPlayer(f, 1)
	b := newTestPlayer(f, 2)
	b.Relocate(a.Position().OffsetBy(200, 0, 0))

	if see(&a.WorldObject, &b.WorldObject) {
		t.Error("beyond visibility range must not be seen")
	}
	if !a.CanSeeOrDetect(&b.WorldObject, false, false, false) {
		t.Error("with the distance check off, range is ignored")
	}
}

func TestCanSeeOrDetect_GMInvisibility(t *testing.T) {
	f := newFakeWorld()
	viewer := newTestPlayer(f, 1)
	gm := newTestPlayer(f, 2)
	gm.SetGameMaster(true, 3)

	if see(&viewer.WorldObject, &gm.WorldObject) {
		t.Error("a GM is invisible to ordinary players")
	}
	if !see(&gm.WorldObject, &viewer.WorldObject) {
		t.Error("the GM still sees ordinary players")
	}

	lowGM := newTestPlayer(f, 3)
	lowGM.SetGameMaster(true, 1)
	if see(&lowGM.WorldObject, &gm.WorldObject) {
		t.Error("a lower GM level must not see a higher one")
	}

	peer := newTestPlayer(f, 4)
	peer.SetGameMaster(true, 3)
	if !see(&peer.WorldObject, &gm.WorldObject) {
		t.Error("equal GM levels see each other")
	}

	gm.SetGameMaster(false, 0)
	if !see(&viewer.WorldObject, &gm.WorldObject) {
		t.Error("leaving GM mode restores visibility")
	}
}

func TestCanSeeOrDetect_GhostChannels(t *testing.T) {
	f := newFakeWorld()
	living := newTestPlayer(f, 1)
	ghost := newTestPlayer(f, 2)
	ghost.SetGhost(true)

	if see(&living.WorldObject, &ghost.WorldObject) {
		t.Error("a living stranger must not see a ghost")
	}
	if see(&ghost.WorldObject, &living.WorldObject) {
		t.Error("an ungrouped ghost does not see the living either")
	}

	// Same-team groupmates keep seeing their dead fellow.
	living.SetGroupID(5)
	ghost.SetGroupID(5)
	if !see(&living.WorldObject, &ghost.WorldObject) {
		t.Error("a living groupmate of the same team sees the ghost")
	}

	// A fellow ghost detects ghost channels directly.
	ghost2 := newTestPlayer(f, 3)
	ghost2.SetGhost(true)
	if !see(&ghost2.WorldObject, &ghost.WorldObject) {
		t.Error("ghosts see each other")
	}
}

func TestCanSeeOrDetect_DespawnInvisible(t *testing.T) {
	f := newFakeWorld()
	a := newTestPlayer(f, 1)
	b := newTestPlayer(f, 2)

	b.SetDespawnInvisible(true)
	if see(&a.WorldObject, &b.WorldObject) {
		t.Error("despawn fade hides the entity")
	}
	b.SetDespawnInvisible(false)
	if !see(&a.WorldObject, &b.WorldObject) {
		t.Error("clearing the fade restores visibility")
	}
}

func TestCanSeeOrDetect_InvisibilityChannels(t *testing.T) {
	f := newFakeWorld()
	viewer := newTestPlayer(f, 1)
	hidden := newTestPlayer(f, 2)
	hidden.Invisibility().AddFlag(InvisibilityGeneral)
	hidden.Invisibility().SetValue(InvisibilityGeneral, 10)

	if see(&viewer.WorldObject, &hidden.WorldObject) {
		t.Error("undetected invisibility channel hides the entity")
	}

	viewer.InvisibilityDetect().AddFlag(InvisibilityGeneral)
	viewer.InvisibilityDetect().SetValue(InvisibilityGeneral, 5)
	if see(&viewer.WorldObject, &hidden.WorldObject) {
		t.Error("detection magnitude below the channel value is not enough")
	}

	viewer.InvisibilityDetect().SetValue(InvisibilityGeneral, 10)
	if !see(&viewer.WorldObject, &hidden.WorldObject) {
		t.Error("matching detection magnitude reveals the entity")
	}
}

func TestCanSeeOrDetect_StealthRange(t *testing.T) {
	f := newFakeWorld()
	viewer := newTestPlayer(f, 1)
	sneak := newTestPlayer(f, 2)
	sneak.Stealth().AddFlag(StealthGeneral)
	sneak.Stealth().SetValue(StealthGeneral, 0)

	// Equal level, no detect bonus: 30 points * 0.3 yd + 1.5 combat reach
	// gives a 10.5 yd reveal radius. The sneak stands ahead of the viewer.
	sneak.Relocate(viewer.Position().OffsetBy(15, 0, 0))
	if see(&viewer.WorldObject, &sneak.WorldObject) {
		t.Error("stealth outside the reveal radius holds")
	}

	sneak.Relocate(viewer.Position().OffsetBy(8, 0, 0))
	if !see(&viewer.WorldObject, &sneak.WorldObject) {
		t.Error("stealth inside the reveal radius is pierced")
	}

	// Stealth cannot be spotted from behind.
	sneak.Relocate(viewer.Position().OffsetBy(-8, 0, 0))
	if see(&viewer.WorldObject, &sneak.WorldObject) {
		t.Error("stealth behind the viewer holds")
	}

	// Inside combat reach stealth never hides, facing or not.
	sneak.Relocate(viewer.Position().OffsetBy(-1, 0, 0))
	if !see(&viewer.WorldObject, &sneak.WorldObject) {
		t.Error("combat reach always reveals stealth")
	}

	// ignoreStealth bypasses the whole concealment pass.
	sneak.Relocate(viewer.Position().OffsetBy(15, 0, 0))
	if !viewer.CanSeeOrDetect(&sneak.WorldObject, true, true, false) {
		t.Error("ignoreStealth must bypass stealth entirely")
	}
}

func TestCanSeeOrDetect_StealthLevelAdvantage(t *testing.T) {
	f := newFakeWorld()
	viewer := newTestPlayer(f, 1)
	viewer.SetLevel(20)
	sneak := newTestPlayer(f, 2)
	sneak.SetLevel(10)
	sneak.Stealth().AddFlag(StealthGeneral)
	sneak.Stealth().SetValue(StealthGeneral, 0)

	// Ten levels of advantage: (30 + 10*5) * 0.3 + 1.5 = 25.5 yd.
	sneak.Relocate(viewer.Position().OffsetBy(24, 0, 0))
	if !see(&viewer.WorldObject, &sneak.WorldObject) {
		t.Error("level advantage widens the reveal radius")
	}
	sneak.Relocate(viewer.Position().OffsetBy(27, 0, 0))
	if see(&viewer.WorldObject, &sneak.WorldObject) {
		t.Error("even with advantage the radius is bounded")
	}
}

func TestCanSeeOrDetect_OwnerSeesMinion(t *testing.T) {
	f := newFakeWorld()
	store := newTestStore()
	owner := newTestPlayer(f, 1)
	minion, err := spawnTestCreature(f, store, 3, testEntryGrunt, nil)
	if err != nil {
		t.Fatal(err)
	}
	minion.SetOwnerGUID(owner.GUID())
	minion.Invisibility().AddFlag(InvisibilityGeneral)
	minion.Invisibility().SetValue(InvisibilityGeneral, 100)

	if !see(&owner.WorldObject, &minion.WorldObject) {
		t.Error("a controller always perceives its own minion")
	}

	stranger := newTestPlayer(f, 2)
	if see(&stranger.WorldObject, &minion.WorldObject) {
		t.Error("strangers still cannot pierce the minion's invisibility")
	}
}

func TestCanSeeOrDetect_PrivateObject(t *testing.T) {
	f := newFakeWorld()
	store := newTestStore()
	owner := newTestPlayer(f, 1)
	obj, err := spawnTestCreature(f, store, 3, testEntryGrunt, nil)
	if err != nil {
		t.Fatal(err)
	}
	obj.SetPrivateObjectOwner(owner.GUID())

	if !see(&owner.WorldObject, &obj.WorldObject) {
		t.Error("the private owner sees the object")
	}

	stranger := newTestPlayer(f, 2)
	if see(&stranger.WorldObject, &obj.WorldObject) {
		t.Error("strangers must not see a private object")
	}

	// The owner's groupmates share the vision.
	owner.SetGroupID(9)
	mate := newTestPlayer(f, 3)
	mate.SetGroupID(9)
	if !see(&mate.WorldObject, &obj.WorldObject) {
		t.Error("the owner's groupmates share private vision")
	}
}

func TestCanSeeOrDetect_GhostNearCorpse(t *testing.T) {
	f := newFakeWorld()
	ghost := newTestPlayer(f, 1)
	other := newTestPlayer(f, 2)

	// Dead with positive health (released spirit). The spirit stands beyond
	// normal sight range of the object, but its corpse lies within range of
	// both, which bypasses the plain distance gate.
	ghost.setDeathStateBase(DeathStateDead)
	ghost.SetCorpseLocation(other.Position().OffsetBy(40, 0, 0))
	ghost.Relocate(other.Position().OffsetBy(100, 0, 0))

	if !ghost.CanSeeOrDetect(&other.WorldObject, false, true, false) {
		t.Error("a ghost hovering near its corpse bypasses the range gate")
	}

	ghost.ClearCorpse()
	if ghost.CanSeeOrDetect(&other.WorldObject, false, true, false) {
		t.Error("without a corpse the plain range gate applies")
	}
}
