package model

import (
	"time"
)

// fakeWorld is a minimal WorldContext for entity tests: a flat object list,
// open terrain, an in-memory respawn table and a hand-cranked clock.
type fakeWorld struct {
	now        time.Time
	mapID      uint32
	instanceID uint32
	dungeon    bool
	raid       bool

	objects map[ObjectGuid]*WorldObject

	visRange float32
	los      bool

	respawnTimes   map[uint64]time.Time
	scheduled      map[uint64]time.Time
	inactiveGroups map[uint32]bool
	linked         map[uint64]uint64
	respawnRate    float64

	destroyed []ObjectGuid
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		now:            time.Unix(1_000_000, 0),
		objects:        make(map[ObjectGuid]*WorldObject),
		visRange:       90,
		los:            true,
		respawnTimes:   make(map[uint64]time.Time),
		scheduled:      make(map[uint64]time.Time),
		inactiveGroups: make(map[uint32]bool),
		linked:         make(map[uint64]uint64),
		respawnRate:    1,
	}
}

func (f *fakeWorld) add(obj *WorldObject) {
	obj.SetContext(f)
	obj.AddToWorld()
	f.objects[obj.GUID()] = obj
}

func (f *fakeWorld) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fakeWorld) Now() time.Time     { return f.now }
func (f *fakeWorld) MapID() uint32      { return f.mapID }
func (f *fakeWorld) InstanceID() uint32 { return f.instanceID }
func (f *fakeWorld) IsDungeon() bool    { return f.dungeon }
func (f *fakeWorld) IsRaid() bool       { return f.raid }

func (f *fakeWorld) FindWorldObject(guid ObjectGuid) *WorldObject {
	return f.objects[guid]
}

func (f *fakeWorld) ForEachInRange(center Position, radius float32, fn func(*WorldObject) bool) {
	for _, obj := range f.objects {
		if center.IsWithinDist(obj.Position(), radius) {
			if !fn(obj) {
				return
			}
		}
	}
}

func (f *fakeWorld) InLineOfSight(_, _ Position) bool        { return f.los }
func (f *fakeWorld) ZoneAndArea(_ Position) (uint32, uint32) { return 0, 0 }
func (f *fakeWorld) VisibilityRange() float32                { return f.visRange }

func (f *fakeWorld) SaveRespawnTime(spawnID uint64, t time.Time) { f.respawnTimes[spawnID] = t }
func (f *fakeWorld) RespawnTimeFor(spawnID uint64) time.Time     { return f.respawnTimes[spawnID] }
func (f *fakeWorld) RemoveRespawnTime(spawnID uint64)            { delete(f.respawnTimes, spawnID) }

func (f *fakeWorld) ScheduleRespawn(spawnID uint64, _ uint32, at time.Time) {
	f.scheduled[spawnID] = at
}

func (f *fakeWorld) IsSpawnGroupActive(groupID uint32) bool { return !f.inactiveGroups[groupID] }

func (f *fakeWorld) LinkedRespawnFor(spawnID uint64) uint64 { return f.linked[spawnID] }

func (f *fakeWorld) RespawnRate() float64 { return f.respawnRate }

func (f *fakeWorld) ObjectDestroyedForNearby(obj *WorldObject) {
	f.destroyed = append(f.destroyed, obj.GUID())
}

// Shared template fixtures.

const (
	testEntryGrunt    = 100
	testEntryBoss     = 200
	testEntryGruntHC  = 101
	testDisplayGrunt  = 5000
	testDisplayBoss   = 5001
	testFactionFriend = 35
	testFactionHostile = 14
)

func newTestStore() *TemplateStore {
	grunt := &CreatureTemplate{
		Entry:          testEntryGrunt,
		Name:           "Test Grunt",
		Rank:           RankNormal,
		Models:         []CreatureModel{{DisplayID: testDisplayGrunt, Scale: 1, Probability: 1}},
		MinLevel:       10,
		MaxLevel:       10,
		Faction:        testFactionHostile,
		Scale:          1,
		SpeedWalk:      2.5,
		SpeedRun:       7,
		BaseHealth:     500,
		HealthPerLevel: 50,
		BaseMana:       100,
		ManaPerLevel:   10,
		BaseAttackTime: 2000,
		MinDamage:      10,
		MaxDamage:      20,
		DifficultyEntry: [3]uint32{testEntryGruntHC, 0, 0},
	}
	gruntHC := &CreatureTemplate{
		Entry:      testEntryGruntHC,
		Name:       "Test Grunt",
		Rank:       RankNormal,
		Models:     []CreatureModel{{DisplayID: testDisplayGrunt, Scale: 1, Probability: 1}},
		MinLevel:   12,
		MaxLevel:   12,
		Faction:    testFactionHostile,
		Scale:      1,
		BaseHealth: 900,
	}
	boss := &CreatureTemplate{
		Entry:       testEntryBoss,
		Name:        "Test Boss",
		Rank:        RankWorldBoss,
		Models:      []CreatureModel{{DisplayID: testDisplayBoss, Scale: 1, Probability: 1}},
		MinLevel:    63,
		MaxLevel:    63,
		Faction:     testFactionHostile,
		Scale:       1,
		BaseHealth:  100000,
		StaticFlags: [5]uint32{1 << 2, 0, 0, 0, 0}, // boss mob
	}
	return NewTemplateStore([]*CreatureTemplate{grunt, gruntHC, boss})
}

func newTestFactions() *FactionStore {
	return NewFactionStore([]*FactionTemplate{
		{ID: testFactionFriend, OwnMask: FactionMaskPlayer | FactionMaskAlliance | FactionMaskHorde,
			FriendMask: FactionMaskPlayer | FactionMaskAlliance | FactionMaskHorde},
		{ID: testFactionHostile, OwnMask: FactionMaskMonster,
			FriendMask: FactionMaskMonster,
			EnemyMask:  FactionMaskPlayer | FactionMaskAlliance | FactionMaskHorde},
	})
}

// spawnTestCreature places a spawn-backed creature on the fake world.
func spawnTestCreature(f *fakeWorld, store *TemplateStore, spawnID uint64, entry uint32, group *SpawnGroupTemplate) (*Creature, error) {
	data := &CreatureData{
		SpawnID:       spawnID,
		Entry:         entry,
		MapID:         f.mapID,
		SpawnPoint:    NewPosition(10, 10, 0, 0),
		PhaseMask:     1,
		SpawnTimeSecs: 120 * time.Second,
	}
	guid := NewGuid(HighGuidUnit, entry, spawnID)
	c, err := NewCreatureFromSpawn(store, guid, data, group, 0)
	if err != nil {
		return nil, err
	}
	f.add(&c.WorldObject)
	return c, nil
}

// newTestPlayer places a player on the fake world.
func newTestPlayer(f *fakeWorld, counter uint64) *Player {
	p := NewPlayer(counter, "Tester", TeamAlliance)
	p.SetLevel(10)
	p.SetFaction(testFactionFriend)
	p.Relocate(NewPosition(10, 10, 0, 0))
	f.add(&p.WorldObject)
	return p
}
