package ai

import (
	"testing"
	"time"

	"github.com/openwow/wowgo/internal/model"
	"github.com/openwow/wowgo/internal/world"
)

const (
	entryGrunt    uint32 = 100
	entryTurret   uint32 = 101
	entryScripted uint32 = 102
	entryBroken   uint32 = 103
)

func aiTestStore() *model.TemplateStore {
	base := model.CreatureTemplate{
		Rank:           model.RankNormal,
		Models:         []model.CreatureModel{{DisplayID: 5000, Scale: 1, Probability: 1}},
		MinLevel:       10,
		MaxLevel:       10,
		Faction:        14,
		Scale:          1,
		BaseHealth:     500,
		HealthPerLevel: 50,
	}

	grunt := base
	grunt.Entry = entryGrunt
	grunt.Name = "Scan Grunt"

	turret := base
	turret.Entry = entryTurret
	turret.Name = "Rooted Turret"
	turret.StaticFlags = [5]uint32{0, 0, 1 << 0, 0, 0} // sessile

	scripted := base
	scripted.Entry = entryScripted
	scripted.Name = "Scripted Dummy"
	scripted.AIName = "NullAI"

	broken := base
	broken.Entry = entryBroken
	broken.Name = "Broken Script"
	broken.AIName = "NoSuchScript"

	return model.NewTemplateStore([]*model.CreatureTemplate{&grunt, &turret, &scripted, &broken})
}

func aiTestFactions() *model.FactionStore {
	return model.NewFactionStore([]*model.FactionTemplate{
		{ID: 35, OwnMask: model.FactionMaskPlayer | model.FactionMaskAlliance,
			FriendMask: model.FactionMaskPlayer | model.FactionMaskAlliance},
		{ID: 14, OwnMask: model.FactionMaskMonster, FriendMask: model.FactionMaskMonster,
			EnemyMask: model.FactionMaskPlayer | model.FactionMaskAlliance | model.FactionMaskHorde},
	})
}

func newAITestMap(t *testing.T) *world.Map {
	t.Helper()
	model.SetFactionStore(aiTestFactions())
	Install()
	return world.NewMap(0, 0, world.MapTypeWorld, 0, aiTestStore())
}

func spawnAt(t *testing.T, m *world.Map, spawnID uint64, entry uint32, pos model.Position) *model.Creature {
	t.Helper()
	c, err := m.LoadSpawn(&model.CreatureData{
		SpawnID:       spawnID,
		Entry:         entry,
		SpawnPoint:    pos,
		PhaseMask:     1,
		SpawnTimeSecs: 120 * time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func placePlayer(m *world.Map, counter uint64, pos model.Position) *model.Player {
	p := model.NewPlayer(counter, "Bait", model.TeamAlliance)
	p.SetLevel(10)
	p.SetFaction(35)
	p.Relocate(pos)
	m.AddPlayer(p, nil)
	return p
}

func TestForCreature_Selection(t *testing.T) {
	m := newAITestMap(t)

	grunt := spawnAt(t, m, 1, entryGrunt, model.NewPosition(10, 10, 0, 0))
	if _, ok := ForCreature(grunt).(*AggressorAI); !ok {
		t.Error("plain hostile creatures default to AggressorAI")
	}

	turret := spawnAt(t, m, 2, entryTurret, model.NewPosition(20, 10, 0, 0))
	if _, ok := ForCreature(turret).(*PassiveAI); !ok {
		t.Error("sessile creatures default to PassiveAI")
	}

	scripted := spawnAt(t, m, 3, entryScripted, model.NewPosition(30, 10, 0, 0))
	if _, ok := ForCreature(scripted).(model.NullAI); !ok {
		t.Error("a registered script name wins over the defaults")
	}

	broken := spawnAt(t, m, 4, entryBroken, model.NewPosition(40, 10, 0, 0))
	if _, ok := ForCreature(broken).(*AggressorAI); !ok {
		t.Error("an unknown script name falls back to the disposition default")
	}
}

func TestRegister_ShadowsByName(t *testing.T) {
	m := newAITestMap(t)
	Register("NoSuchScript", func(c *model.Creature) model.CreatureAI { return NewPassiveAI(c) })
	defer func() {
		registryMu.Lock()
		delete(registry, "NoSuchScript")
		registryMu.Unlock()
	}()

	c := spawnAt(t, m, 1, entryBroken, model.NewPosition(10, 10, 0, 0))
	if _, ok := ForCreature(c).(*PassiveAI); !ok {
		t.Error("a late registration should resolve the script name")
	}
}

func TestAggressorAI_ScanEngagesNearbyHostile(t *testing.T) {
	m := newAITestMap(t)
	c := spawnAt(t, m, 1, entryGrunt, model.NewPosition(10, 10, 0, 0))
	p := placePlayer(m, 1, model.NewPosition(20, 10, 0, 0))

	// The sweep runs on its own timer; one long tick is enough to trip it.
	m.Update(1300 * time.Millisecond)

	if !c.IsEngaged() {
		t.Fatal("a hostile player inside the aggro radius should be engaged")
	}
	if got := c.ThreatManager().ThreatOf(p.GUID()); got != 0 {
		t.Errorf("proximity aggro seeds zero threat, got %v", got)
	}
	if len(c.ThreatManager().HostileGUIDs()) != 1 {
		t.Error("the player should be on the threat list")
	}
}

func TestAggressorAI_RespectsAggroRadius(t *testing.T) {
	m := newAITestMap(t)
	c := spawnAt(t, m, 1, entryGrunt, model.NewPosition(10, 10, 0, 0))
	// 30 yd out: visible, but beyond the 15 yd equal-level aggro radius.
	placePlayer(m, 1, model.NewPosition(40, 10, 0, 0))

	m.Update(1300 * time.Millisecond)

	if c.IsEngaged() {
		t.Error("a player outside the aggro radius must be left alone")
	}
}

// recordingAI captures lifecycle notifications for assertions.
type recordingAI struct {
	model.NullAI
	died    int
	killer  *model.Unit
	noticed int
}

func (ai *recordingAI) JustDied(killer *model.Unit) {
	ai.died++
	ai.killer = killer
}

func (ai *recordingAI) MoveInLineOfSight(who *model.Unit) {
	ai.noticed++
}

func TestCreatureDeathNotifiesAI(t *testing.T) {
	m := newAITestMap(t)
	rec := &recordingAI{}
	Register("NoSuchScript", func(*model.Creature) model.CreatureAI { return rec })
	defer func() {
		registryMu.Lock()
		delete(registry, "NoSuchScript")
		registryMu.Unlock()
	}()

	c := spawnAt(t, m, 1, entryBroken, model.NewPosition(10, 10, 0, 0))
	p := placePlayer(m, 1, model.NewPosition(15, 10, 0, 0))
	c.EngageWithTarget(&p.Unit)
	c.ThreatManager().AddThreat(&p.Unit, 50)

	c.SetDeathState(model.DeathStateJustDied)

	if rec.died != 1 {
		t.Fatalf("JustDied fired %d times, want once", rec.died)
	}
	if rec.killer != &p.Unit {
		t.Error("the current victim should be reported as the killer")
	}
}

func TestMap_RelocationFeedsLineOfSight(t *testing.T) {
	m := newAITestMap(t)
	rec := &recordingAI{}
	Register("NoSuchScript", func(*model.Creature) model.CreatureAI { return rec })
	defer func() {
		registryMu.Lock()
		delete(registry, "NoSuchScript")
		registryMu.Unlock()
	}()

	spawnAt(t, m, 1, entryBroken, model.NewPosition(10, 10, 0, 0))
	p := placePlayer(m, 1, model.NewPosition(300, 10, 0, 0))

	m.Update(50 * time.Millisecond)
	if rec.noticed != 0 {
		t.Fatal("nothing moved yet")
	}

	p.Relocate(model.NewPosition(20, 10, 0, 0))
	m.Update(50 * time.Millisecond)

	if rec.noticed == 0 {
		t.Error("a unit crossing cells must reach the line-of-sight hook")
	}
}

func TestAggressorAI_NoticesMovementBetweenSweeps(t *testing.T) {
	m := newAITestMap(t)
	c := spawnAt(t, m, 1, entryGrunt, model.NewPosition(10, 10, 0, 0))
	p := placePlayer(m, 1, model.NewPosition(300, 10, 0, 0))

	m.Update(50 * time.Millisecond)
	if c.IsEngaged() {
		t.Fatal("nothing in range yet")
	}

	// The player walks into the aggro radius; a single short tick reacts to
	// the relocation without waiting for the sweep timer.
	p.Relocate(model.NewPosition(20, 10, 0, 0))
	m.Update(50 * time.Millisecond)

	if !c.IsEngaged() {
		t.Fatal("a unit walking into range must be noticed on relocation")
	}
}

func TestPassiveAI_OnlyAnswersDamage(t *testing.T) {
	m := newAITestMap(t)
	c := spawnAt(t, m, 1, entryTurret, model.NewPosition(10, 10, 0, 0))
	p := placePlayer(m, 1, model.NewPosition(15, 10, 0, 0))

	m.Update(1300 * time.Millisecond)
	if c.IsEngaged() {
		t.Fatal("a passive creature never initiates")
	}

	// Incoming damage puts the attacker on the threat list; the next tick
	// answers it.
	c.ThreatManager().AddThreat(&p.Unit, 10)
	m.Update(50 * time.Millisecond)

	if !c.IsEngaged() {
		t.Fatal("a passive creature fights back once attacked")
	}
	if c.Target() != p.GUID() {
		t.Errorf("Target = %v, want the attacker", c.Target())
	}
}

func TestBaseAI_EnterEvadeMode(t *testing.T) {
	m := newAITestMap(t)
	c := spawnAt(t, m, 1, entryGrunt, model.NewPosition(10, 10, 0, 0))
	p := placePlayer(m, 1, model.NewPosition(15, 10, 0, 0))

	c.EngageWithTarget(&p.Unit)
	c.ThreatManager().AddThreat(&p.Unit, 50)
	c.Relocate(model.NewPosition(80, 10, 0, 0))
	c.SetHealth(100)

	c.AI().EnterEvadeMode(model.EvadeReasonNoHostiles)

	if c.IsInCombat() {
		t.Error("evading drops combat")
	}
	if !c.ThreatManager().IsEmpty() {
		t.Error("evading clears the threat list")
	}
	if got := c.Position(); got.X != c.HomePosition().X || got.Y != c.HomePosition().Y {
		t.Errorf("position = %v, want home %v", got, c.HomePosition())
	}
	if c.Health() != c.MaxHealth() {
		t.Errorf("health = %d, want full %d", c.Health(), c.MaxHealth())
	}
	if !c.Target().IsEmpty() {
		t.Error("evading clears the current target")
	}
}
