package model

import "testing"

func TestThreatManager_AddThreat(t *testing.T) {
	SetFactionStore(newTestFactions())
	f := newFakeWorld()
	store := newTestStore()

	monster, err := spawnTestCreature(f, store, 1, testEntryGrunt, nil)
	if err != nil {
		t.Fatal(err)
	}
	p := newTestPlayer(f, 1)
	tm := monster.ThreatManager()

	tm.AddThreat(&p.Unit, 50)
	if got := tm.ThreatOf(p.GUID()); got != 50 {
		t.Errorf("ThreatOf = %v, want 50", got)
	}

	// First contact registers the owner on the target's attacker list.
	found := false
	for _, g := range p.Attackers() {
		if g == monster.GUID() {
			found = true
		}
	}
	if !found {
		t.Error("first threat contact should register the attacker")
	}

	// Threat never goes negative.
	tm.AddThreat(&p.Unit, -80)
	if got := tm.ThreatOf(p.GUID()); got != 0 {
		t.Errorf("ThreatOf after oversized reduction = %v, want 0", got)
	}
	if tm.Size() != 1 {
		t.Errorf("Size = %d, want 1", tm.Size())
	}

	// Threat against self is ignored.
	tm.AddThreat(&monster.Unit, 10)
	if tm.Size() != 1 {
		t.Error("self-threat must not create an entry")
	}
}

func TestThreatManager_ModifyThreatPct(t *testing.T) {
	SetFactionStore(newTestFactions())
	f := newFakeWorld()
	store := newTestStore()

	monster, err := spawnTestCreature(f, store, 1, testEntryGrunt, nil)
	if err != nil {
		t.Fatal(err)
	}
	p := newTestPlayer(f, 1)
	tm := monster.ThreatManager()
	tm.AddThreat(&p.Unit, 100)

	tm.ModifyThreatPct(&p.Unit, 100)
	if got := tm.ThreatOf(p.GUID()); got != 200 {
		t.Errorf("after +100%%: %v, want 200", got)
	}
	tm.ModifyThreatPct(&p.Unit, -50)
	if got := tm.ThreatOf(p.GUID()); got != 100 {
		t.Errorf("after -50%%: %v, want 100", got)
	}
	tm.ModifyThreatPct(&p.Unit, -100)
	if got := tm.ThreatOf(p.GUID()); got != 0 {
		t.Errorf("after -100%%: %v, want 0", got)
	}

	// Unknown targets are left alone rather than created.
	stranger := newTestPlayer(f, 2)
	tm.ModifyThreatPct(&stranger.Unit, 100)
	if tm.Size() != 1 {
		t.Error("percent modification must not create entries")
	}
}

func TestThreatManager_RemoveAndClear(t *testing.T) {
	SetFactionStore(newTestFactions())
	f := newFakeWorld()
	store := newTestStore()

	monster, err := spawnTestCreature(f, store, 1, testEntryGrunt, nil)
	if err != nil {
		t.Fatal(err)
	}
	p1 := newTestPlayer(f, 1)
	p2 := newTestPlayer(f, 2)
	tm := monster.ThreatManager()
	tm.AddThreat(&p1.Unit, 10)
	tm.AddThreat(&p2.Unit, 20)

	guids := tm.HostileGUIDs()
	if len(guids) != 2 || guids[0] != p1.GUID() || guids[1] != p2.GUID() {
		t.Fatalf("HostileGUIDs = %v, want registration order p1, p2", guids)
	}

	tm.Remove(p1.GUID())
	if tm.Size() != 1 || tm.HostileGUIDs()[0] != p2.GUID() {
		t.Error("removal keeps the remaining entry")
	}
	tm.Remove(p1.GUID()) // already gone

	tm.Clear()
	if !tm.IsEmpty() {
		t.Error("Clear should empty the list")
	}
}

func TestThreatManager_CurrentVictimHighestWins(t *testing.T) {
	SetFactionStore(newTestFactions())
	f := newFakeWorld()
	store := newTestStore()

	monster, err := spawnTestCreature(f, store, 1, testEntryGrunt, nil)
	if err != nil {
		t.Fatal(err)
	}
	p1 := newTestPlayer(f, 1)
	p2 := newTestPlayer(f, 2)
	tm := monster.ThreatManager()
	tm.AddThreat(&p1.Unit, 100)
	tm.AddThreat(&p2.Unit, 200)

	v := tm.CurrentVictim()
	if v == nil || v.GUID() != p2.GUID() {
		t.Errorf("CurrentVictim = %v, want the higher-threat target", v)
	}
}

func TestThreatManager_CurrentVictimPrunesStale(t *testing.T) {
	SetFactionStore(newTestFactions())
	f := newFakeWorld()
	store := newTestStore()

	monster, err := spawnTestCreature(f, store, 1, testEntryGrunt, nil)
	if err != nil {
		t.Fatal(err)
	}
	p1 := newTestPlayer(f, 1)
	p2 := newTestPlayer(f, 2)
	tm := monster.ThreatManager()
	tm.AddThreat(&p1.Unit, 100)
	tm.AddThreat(&p2.Unit, 200)

	// A dead entry is dropped and the election falls to the survivor.
	p2.setDeathStateBase(DeathStateCorpse)
	v := tm.CurrentVictim()
	if v == nil || v.GUID() != p1.GUID() {
		t.Errorf("CurrentVictim = %v, want the living target", v)
	}
	if tm.Size() != 1 {
		t.Errorf("Size after pruning = %d, want 1", tm.Size())
	}

	// An entry the map no longer resolves is dropped too.
	delete(f.objects, p1.GUID())
	if v := tm.CurrentVictim(); v != nil {
		t.Errorf("CurrentVictim = %v, want nil after all entries went stale", v)
	}
	if !tm.IsEmpty() {
		t.Error("stale entries should have been pruned")
	}
}

func TestThreatManager_CurrentVictimSkipsIneligible(t *testing.T) {
	SetFactionStore(newTestFactions())
	f := newFakeWorld()
	store := newTestStore()

	monster, err := spawnTestCreature(f, store, 1, testEntryGrunt, nil)
	if err != nil {
		t.Fatal(err)
	}
	p1 := newTestPlayer(f, 1)
	p2 := newTestPlayer(f, 2)
	tm := monster.ThreatManager()
	tm.AddThreat(&p1.Unit, 100)
	tm.AddThreat(&p2.Unit, 200)

	// A GM is alive and resolvable, just not attackable: skipped for the
	// election but kept on the list for when the veto lifts.
	p2.SetGameMaster(true, 3)
	v := tm.CurrentVictim()
	if v == nil || v.GUID() != p1.GUID() {
		t.Errorf("CurrentVictim = %v, want the attackable target", v)
	}
	if tm.Size() != 2 {
		t.Errorf("Size = %d, an ineligible target must not be pruned", tm.Size())
	}

	p2.SetGameMaster(false, 0)
	if v := tm.CurrentVictim(); v == nil || v.GUID() != p2.GUID() {
		t.Error("lifting the veto restores the higher-threat victim")
	}
}
