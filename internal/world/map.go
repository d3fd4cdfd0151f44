package world

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openwow/wowgo/internal/gameserver/serverpackets"
	"github.com/openwow/wowgo/internal/metrics"
	"github.com/openwow/wowgo/internal/model"
)

// MapType classifies the map's instancing rules.
type MapType uint8

const (
	MapTypeWorld MapType = iota
	MapTypeDungeon
	MapTypeRaid
)

// PacketSink receives serialized replication packets for one player session.
type PacketSink interface {
	Send(data []byte)
}

// RespawnStore persists the respawn-time table across restarts. Implemented
// by db.RespawnRepository; tests use in-memory fakes.
type RespawnStore interface {
	Save(ctx context.Context, mapID, instanceID uint32, spawnID uint64, at time.Time) error
	Delete(ctx context.Context, mapID, instanceID uint32, spawnID uint64) error
}

// Terrain answers line-of-sight and zone/area queries. The open implementation
// is used when no terrain data is loaded.
type Terrain interface {
	InLineOfSight(from, to model.Position) bool
	ZoneAndArea(pos model.Position) (zoneID, areaID uint32)
}

type openTerrain struct{}

func (openTerrain) InLineOfSight(_, _ model.Position) bool { return true }
func (openTerrain) ZoneAndArea(_ model.Position) (uint32, uint32) { return 0, 0 }

type spawnGroupState struct {
	template *model.SpawnGroupTemplate
	active   bool
}

// Map is one simulation shard: a spatial index of live entities advanced by a
// single goroutine in discrete ticks. All entity mutation, the respawn
// scheduler and the replication flush run on that goroutine; only the sinks
// cross its boundary.
type Map struct {
	id         uint32
	instanceID uint32
	mapType    MapType
	difficulty uint8

	visibilityRange float32

	// clock is injectable for deterministic tests.
	clock func() time.Time

	store   *model.TemplateStore
	guidGen *model.GuidGenerator

	terrain Terrain

	cells   map[uint64]*Cell
	objCell map[model.ObjectGuid]uint64

	objects   map[model.ObjectGuid]*model.WorldObject
	creatures map[model.ObjectGuid]*model.Creature
	players   map[model.ObjectGuid]*model.Player

	// creaturesBySpawnID is the spawn-id-keyed multimap consumed by admin
	// tooling and forced respawns.
	creaturesBySpawnID map[uint64][]*model.Creature

	spawnData      map[uint64]*model.CreatureData
	spawnGroups    map[uint32]*spawnGroupState
	linkedRespawns map[uint64]uint64

	respawnRate float64

	respawnTimes map[uint64]time.Time
	respawnStore RespawnStore
	scheduler    *respawnScheduler

	sinks map[model.ObjectGuid]PacketSink
	// known tracks, per viewer, the set of entities the viewer has received
	// a create packet for.
	known map[model.ObjectGuid]map[model.ObjectGuid]struct{}

	// destroyed collects guids torn down mid-tick; the flush pass turns them
	// into destroy notices.
	destroyed []destroyNotice

	lifecycle context.Context
}

type destroyNotice struct {
	guid      model.ObjectGuid
	deathAnim bool
}

// MapOption customizes map construction.
type MapOption func(*Map)

// WithClock injects the time source.
func WithClock(clock func() time.Time) MapOption {
	return func(m *Map) { m.clock = clock }
}

// WithRespawnStore attaches the persistence collaborator.
func WithRespawnStore(s RespawnStore) MapOption {
	return func(m *Map) { m.respawnStore = s }
}

// WithTerrain attaches loaded terrain data.
func WithTerrain(t Terrain) MapOption {
	return func(m *Map) { m.terrain = t }
}

// WithVisibilityRange overrides the default awareness radius.
func WithVisibilityRange(r float32) MapOption {
	return func(m *Map) { m.visibilityRange = r }
}

// WithRespawnRate scales every template respawn delay on this shard.
func WithRespawnRate(rate float64) MapOption {
	return func(m *Map) {
		if rate > 0 {
			m.respawnRate = rate
		}
	}
}

// NewMap creates an empty map shard.
func NewMap(id, instanceID uint32, mapType MapType, difficulty uint8, store *model.TemplateStore, opts ...MapOption) *Map {
	m := &Map{
		id:                 id,
		instanceID:         instanceID,
		mapType:            mapType,
		difficulty:         difficulty,
		visibilityRange:    90.0,
		clock:              time.Now,
		store:              store,
		guidGen:            model.NewGuidGenerator(),
		terrain:            openTerrain{},
		cells:              make(map[uint64]*Cell),
		objCell:            make(map[model.ObjectGuid]uint64),
		objects:            make(map[model.ObjectGuid]*model.WorldObject),
		creatures:          make(map[model.ObjectGuid]*model.Creature),
		players:            make(map[model.ObjectGuid]*model.Player),
		creaturesBySpawnID: make(map[uint64][]*model.Creature),
		spawnData:          make(map[uint64]*model.CreatureData),
		spawnGroups:        make(map[uint32]*spawnGroupState),
		linkedRespawns:     make(map[uint64]uint64),
		respawnRate:        1.0,
		respawnTimes:       make(map[uint64]time.Time),
		scheduler:          newRespawnScheduler(),
		sinks:              make(map[model.ObjectGuid]PacketSink),
		known:              make(map[model.ObjectGuid]map[model.ObjectGuid]struct{}),
		lifecycle:          context.Background(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// WorldContext implementation.

func (m *Map) Now() time.Time      { return m.clock() }
func (m *Map) MapID() uint32       { return m.id }
func (m *Map) InstanceID() uint32  { return m.instanceID }
func (m *Map) IsDungeon() bool     { return m.mapType == MapTypeDungeon || m.mapType == MapTypeRaid }
func (m *Map) IsRaid() bool        { return m.mapType == MapTypeRaid }

// VisibilityRange returns the map-wide awareness radius.
func (m *Map) VisibilityRange() float32 { return m.visibilityRange }

// FindWorldObject resolves a guid to a live object.
func (m *Map) FindWorldObject(guid model.ObjectGuid) *model.WorldObject {
	return m.objects[guid]
}

// ForEachInRange visits every object within radius of center. fn returning
// false stops iteration.
func (m *Map) ForEachInRange(center model.Position, radius float32, fn func(*model.WorldObject) bool) {
	minX, minY := CoordToCellIndex(center.X+radius, center.Y+radius)
	maxX, maxY := CoordToCellIndex(center.X-radius, center.Y-radius)
	for cx := minX; cx <= maxX; cx++ {
		for cy := minY; cy <= maxY; cy++ {
			cell, ok := m.cells[cellKey(cx, cy)]
			if !ok {
				continue
			}
			stop := !cell.ForEach(func(obj *model.WorldObject) bool {
				if center.IsWithinDist(obj.Position(), radius) {
					return fn(obj)
				}
				return true
			})
			if stop {
				return
			}
		}
	}
}

func (m *Map) InLineOfSight(from, to model.Position) bool {
	return m.terrain.InLineOfSight(from, to)
}

func (m *Map) ZoneAndArea(pos model.Position) (uint32, uint32) {
	return m.terrain.ZoneAndArea(pos)
}

// SaveRespawnTime records the deadline in the live table and persists it
// best-effort. Deadlines only move forward, mirroring the GREATEST in the
// store upsert.
func (m *Map) SaveRespawnTime(spawnID uint64, t time.Time) {
	if cur, ok := m.respawnTimes[spawnID]; ok && cur.After(t) {
		t = cur
	}
	m.respawnTimes[spawnID] = t
	if m.respawnStore == nil {
		return
	}
	if err := m.respawnStore.Save(m.lifecycle, m.id, m.instanceID, spawnID, t); err != nil {
		slog.Error("persist respawn time", "map", m.id, "spawn", spawnID, "error", err)
	}
}

// RespawnTimeFor returns the pending deadline, zero when none.
func (m *Map) RespawnTimeFor(spawnID uint64) time.Time {
	return m.respawnTimes[spawnID]
}

// RemoveRespawnTime drops the deadline from table and store.
func (m *Map) RemoveRespawnTime(spawnID uint64) {
	delete(m.respawnTimes, spawnID)
	if m.respawnStore == nil {
		return
	}
	if err := m.respawnStore.Delete(m.lifecycle, m.id, m.instanceID, spawnID); err != nil {
		slog.Error("delete respawn time", "map", m.id, "spawn", spawnID, "error", err)
	}
}

// RestoreRespawnTimes seeds the deadline table from persistence. Call before
// LoadSpawn so pending deadlines keep their spawns down across restarts.
func (m *Map) RestoreRespawnTimes(times map[uint64]time.Time) {
	for spawnID, at := range times {
		m.respawnTimes[spawnID] = at
	}
}

// ScheduleRespawn queues a pooled-mode wakeup.
func (m *Map) ScheduleRespawn(spawnID uint64, entry uint32, at time.Time) {
	gridID := uint32(0)
	if data, ok := m.spawnData[spawnID]; ok {
		cx, cy := CoordToCellIndex(data.SpawnPoint.X, data.SpawnPoint.Y)
		gridID = GridID(GridIndexOfCell(cx, cy))
	}
	m.scheduler.Schedule(spawnID, entry, at, gridID)
	metrics.RespawnsScheduled.Inc()
}

// IsSpawnGroupActive reports the group's activity; unknown groups (and the
// default group 0) count as active.
func (m *Map) IsSpawnGroupActive(groupID uint32) bool {
	st, ok := m.spawnGroups[groupID]
	if !ok {
		return true
	}
	return st.active
}

// LinkedRespawnFor returns the master spawn id this spawn's respawn is gated
// on, zero when unlinked.
func (m *Map) LinkedRespawnFor(spawnID uint64) uint64 {
	return m.linkedRespawns[spawnID]
}

// RespawnRate is the shard-wide respawn-delay scale factor.
func (m *Map) RespawnRate() float64 { return m.respawnRate }

// ObjectDestroyedForNearby queues a destroy notice for every viewer aware of
// obj.
func (m *Map) ObjectDestroyedForNearby(obj *model.WorldObject) {
	deathAnim := false
	if u := model.UnitFromObject(obj); u != nil {
		deathAnim = !u.IsAlive()
	}
	m.destroyed = append(m.destroyed, destroyNotice{guid: obj.GUID(), deathAnim: deathAnim})
}

// Registration.

// RegisterSpawnGroup installs a spawn-group template; manual-spawn groups
// start inactive.
func (m *Map) RegisterSpawnGroup(t *model.SpawnGroupTemplate) {
	m.spawnGroups[t.GroupID] = &spawnGroupState{
		template: t,
		active:   t.Flags&model.SpawnGroupFlagManualSpawn == 0,
	}
}

// SetSpawnGroupActive toggles a group; deactivation leaves live members
// untouched, it only gates future respawns.
func (m *Map) SetSpawnGroupActive(groupID uint32, active bool) {
	if st, ok := m.spawnGroups[groupID]; ok {
		st.active = active
	}
}

// SpawnGroupFor returns the registered template, nil for the default group.
func (m *Map) SpawnGroupFor(groupID uint32) *model.SpawnGroupTemplate {
	if st, ok := m.spawnGroups[groupID]; ok {
		return st.template
	}
	return nil
}

// SetLinkedRespawn gates slave's respawn on master. Spawn ids not loaded on
// this map are ignored.
func (m *Map) SetLinkedRespawn(slave, master uint64) {
	if _, ok := m.spawnData[slave]; !ok {
		return
	}
	m.linkedRespawns[slave] = master
}

// LoadSpawn registers a spawn record and places its creature in the world.
func (m *Map) LoadSpawn(data *model.CreatureData) (*model.Creature, error) {
	if data.MapID != m.id {
		return nil, fmt.Errorf("load spawn %d: record belongs to map %d, not %d", data.SpawnID, data.MapID, m.id)
	}
	m.spawnData[data.SpawnID] = data

	if at, ok := m.respawnTimes[data.SpawnID]; ok && at.After(m.clock()) {
		group := m.SpawnGroupFor(data.SpawnGroupID)
		if group != nil && !group.IsCompatibilityMode() {
			m.ScheduleRespawn(data.SpawnID, data.Entry, at)
			return nil, nil
		}
		c, err := m.spawnFromRecord(data)
		if err != nil {
			return nil, err
		}
		c.ApplyPendingRespawn(at)
		return c, nil
	}
	return m.spawnFromRecord(data)
}

func (m *Map) spawnFromRecord(data *model.CreatureData) (*model.Creature, error) {
	guid := model.NewGuid(model.HighGuidUnit, data.Entry, m.guidGen.Next(model.HighGuidUnit))
	c, err := model.NewCreatureFromSpawn(m.store, guid, data, m.SpawnGroupFor(data.SpawnGroupID), m.difficulty)
	if err != nil {
		return nil, err
	}
	m.AddCreature(c)
	return c, nil
}

// AddCreature registers a creature with the shard and its spatial index.
func (m *Map) AddCreature(c *model.Creature) {
	c.SetContext(m)
	c.AddToWorld()
	m.objects[c.GUID()] = &c.WorldObject
	m.creatures[c.GUID()] = c
	if sid := c.SpawnID(); sid != 0 {
		m.creaturesBySpawnID[sid] = append(m.creaturesBySpawnID[sid], c)
	}
	m.cellFor(c.Position()).Add(&c.WorldObject)
	cx, cy := CoordToCellIndex(c.Position().X, c.Position().Y)
	m.objCell[c.GUID()] = cellKey(cx, cy)
	metrics.CreaturesAlive.WithLabelValues(m.label()).Inc()
}

// RemoveCreature tears a creature down and unregisters it.
func (m *Map) RemoveCreature(c *model.Creature) {
	c.Teardown()
	m.ObjectDestroyedForNearby(&c.WorldObject)
	c.RemoveFromWorld()
	m.cellFor(c.Position()).Remove(c.GUID())
	delete(m.objCell, c.GUID())
	delete(m.objects, c.GUID())
	delete(m.creatures, c.GUID())
	if sid := c.SpawnID(); sid != 0 {
		list := m.creaturesBySpawnID[sid]
		for i, e := range list {
			if e == c {
				m.creaturesBySpawnID[sid] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(m.creaturesBySpawnID[sid]) == 0 {
			delete(m.creaturesBySpawnID, sid)
		}
	}
	metrics.CreaturesAlive.WithLabelValues(m.label()).Dec()
}

// AddPlayer registers a player and its session sink.
func (m *Map) AddPlayer(p *model.Player, sink PacketSink) {
	p.SetContext(m)
	p.AddToWorld()
	m.objects[p.GUID()] = &p.WorldObject
	m.players[p.GUID()] = p
	m.cellFor(p.Position()).Add(&p.WorldObject)
	cx, cy := CoordToCellIndex(p.Position().X, p.Position().Y)
	m.objCell[p.GUID()] = cellKey(cx, cy)
	if sink != nil {
		m.sinks[p.GUID()] = sink
		m.known[p.GUID()] = make(map[model.ObjectGuid]struct{})
	}
	metrics.PlayersOnline.WithLabelValues(m.label()).Inc()
}

// RemovePlayer unregisters a player.
func (m *Map) RemovePlayer(p *model.Player) {
	m.ObjectDestroyedForNearby(&p.WorldObject)
	p.RemoveFromWorld()
	m.cellFor(p.Position()).Remove(p.GUID())
	delete(m.objCell, p.GUID())
	delete(m.objects, p.GUID())
	delete(m.players, p.GUID())
	delete(m.sinks, p.GUID())
	delete(m.known, p.GUID())
	metrics.PlayersOnline.WithLabelValues(m.label()).Dec()
}

// CreaturesBySpawnID returns the live creatures for a spawn id.
func (m *Map) CreaturesBySpawnID(spawnID uint64) []*model.Creature {
	return m.creaturesBySpawnID[spawnID]
}

// GetRespawnInfo enumerates every pending respawn for the admin surface:
// scheduler-owned wakeups plus legacy-mode deadlines still held by resident
// creature objects.
func (m *Map) GetRespawnInfo() []model.RespawnInfo {
	out := m.scheduler.Pending()
	for sid, t := range m.respawnTimes {
		if _, scheduled := m.scheduler.bySpawn[sid]; scheduled {
			continue
		}
		entry := uint32(0)
		if data, ok := m.spawnData[sid]; ok {
			entry = data.Entry
		}
		out = append(out, model.RespawnInfo{
			Type:        model.SpawnTypeCreature,
			SpawnID:     sid,
			Entry:       entry,
			RespawnTime: t,
		})
	}
	return out
}

// Respawn forces the spawn back up immediately, bypassing its remaining
// delay. Pooled spawns are pulled out of the scheduler and instantiated now;
// legacy-mode spawns delegate to the resident creature object. Reports
// whether anything respawned.
func (m *Map) Respawn(spawnID uint64) bool {
	if _, scheduled := m.scheduler.bySpawn[spawnID]; scheduled {
		m.scheduler.Cancel(spawnID)
		delete(m.respawnTimes, spawnID)
		data, ok := m.spawnData[spawnID]
		if !ok {
			return false
		}
		if _, err := m.spawnFromRecord(data); err != nil {
			slog.Error("forced respawn failed", "map", m.id, "spawn", spawnID, "error", err)
			return false
		}
		metrics.RespawnsExecuted.Inc()
		return true
	}
	respawned := false
	for _, c := range m.CreaturesBySpawnID(spawnID) {
		if !c.IsAlive() {
			c.Respawn(true)
			respawned = true
		}
	}
	return respawned
}

// Tick loop.

// Update advances the shard by one tick: scheduler wakeups, creature state
// machines, then the visibility and replication flush pass.
func (m *Map) Update(diff time.Duration) {
	started := time.Now()
	now := m.clock()

	m.processScheduledRespawns(now)

	// Snapshot so creatures removed mid-tick do not disturb iteration.
	creatures := make([]*model.Creature, 0, len(m.creatures))
	for _, c := range m.creatures {
		creatures = append(creatures, c)
	}
	for _, c := range creatures {
		if c.IsInWorld() {
			c.Update(diff)
		}
	}

	m.relocateMoved()
	m.flushVisibility()

	metrics.TickDuration.WithLabelValues(m.label()).Observe(time.Since(started).Seconds())
}

func (m *Map) processScheduledRespawns(now time.Time) {
	for {
		due := m.scheduler.PopDue(now)
		if due == nil {
			return
		}
		if data, ok := m.spawnData[due.spawnID]; ok {
			if !m.IsSpawnGroupActive(data.SpawnGroupID) {
				// Inactive group: push the wakeup out and retry later.
				m.scheduler.Schedule(due.spawnID, due.entry, now.Add(respawnRetryInterval), due.gridID)
				continue
			}
			delete(m.respawnTimes, due.spawnID)
			if _, err := m.spawnFromRecord(data); err != nil {
				slog.Error("scheduled respawn failed", "map", m.id, "spawn", due.spawnID, "error", err)
				continue
			}
			metrics.RespawnsExecuted.Inc()
		}
	}
}

// respawnRetryInterval spaces retries for spawns gated by an inactive group.
const respawnRetryInterval = 5 * time.Second

// relocateMoved re-buckets objects whose position left their cell and feeds
// the movement into nearby creatures' perception.
func (m *Map) relocateMoved() {
	var moved []*model.WorldObject
	for guid, obj := range m.objects {
		cx, cy := CoordToCellIndex(obj.Position().X, obj.Position().Y)
		key := cellKey(cx, cy)
		if prev, ok := m.objCell[guid]; ok && prev == key {
			continue
		}
		if prev, ok := m.objCell[guid]; ok {
			if cell, exists := m.cells[prev]; exists {
				cell.Remove(guid)
			}
		}
		m.cellFor(obj.Position()).Add(obj)
		m.objCell[guid] = key
		moved = append(moved, obj)
	}
	for _, obj := range moved {
		m.notifyMoved(obj)
	}
}

// notifyMoved hands a moved unit to every nearby creature's line-of-sight
// hook so proximity aggro reacts between sweep intervals.
func (m *Map) notifyMoved(obj *model.WorldObject) {
	who := model.UnitFromObject(obj)
	if who == nil {
		return
	}
	m.ForEachInRange(obj.Position(), m.visibilityRange, func(other *model.WorldObject) bool {
		if other.GUID() == obj.GUID() {
			return true
		}
		if c, ok := other.Data.(*model.Creature); ok {
			c.NotifyMoveInLineOfSight(who)
		}
		return true
	})
}

// flushVisibility runs the per-viewer awareness pass and the dirty-field
// flush. The dirty mask of each object is cleared exactly once, after every
// viewer has been served.
func (m *Map) flushVisibility() {
	// Destroy notices first so stale entities vanish before deltas arrive.
	for _, d := range m.destroyed {
		pkt := serverpackets.BuildDestroy(d.guid, d.deathAnim)
		for viewerGuid, aware := range m.known {
			if _, ok := aware[d.guid]; !ok {
				continue
			}
			delete(aware, d.guid)
			if sink, ok := m.sinks[viewerGuid]; ok {
				sink.Send(pkt)
				metrics.UpdatePacketsSent.WithLabelValues("destroy").Inc()
			}
		}
	}
	m.destroyed = m.destroyed[:0]

	for viewerGuid, sink := range m.sinks {
		viewer, ok := m.players[viewerGuid]
		if !ok {
			continue
		}
		aware := m.known[viewerGuid]

		var gone []model.ObjectGuid
		for guid := range aware {
			obj, live := m.objects[guid]
			if !live || !viewer.CanSeeOrDetect(obj, false, true, false) {
				gone = append(gone, guid)
			}
		}
		if len(gone) > 0 {
			for _, g := range gone {
				delete(aware, g)
			}
			sink.Send(serverpackets.BuildOutOfRange(gone))
			metrics.UpdatePacketsSent.WithLabelValues("out_of_range").Inc()
		}

		m.ForEachInRange(viewer.Position(), m.visibilityRange, func(obj *model.WorldObject) bool {
			if obj.GUID() == viewerGuid {
				return true
			}
			if _, seen := aware[obj.GUID()]; seen {
				return true
			}
			if viewer.CanSeeOrDetect(obj, false, true, false) {
				aware[obj.GUID()] = struct{}{}
				sink.Send(serverpackets.BuildCreate(obj, &viewer.WorldObject))
				metrics.UpdatePacketsSent.WithLabelValues("create").Inc()
			}
			return true
		})
	}

	// Delta flush.
	for _, obj := range m.objects {
		if !obj.Values().HasChanges() {
			continue
		}
		for viewerGuid, sink := range m.sinks {
			viewer, ok := m.players[viewerGuid]
			if !ok {
				continue
			}
			self := viewerGuid == obj.GUID()
			if !self {
				if _, seen := m.known[viewerGuid][obj.GUID()]; !seen {
					continue
				}
			}
			if pkt := serverpackets.BuildValues(obj, &viewer.WorldObject); pkt != nil {
				sink.Send(pkt)
				metrics.UpdatePacketsSent.WithLabelValues("values").Inc()
			}
		}
		obj.ClearChanges()
	}
}

// Run drives the tick loop until ctx is cancelled.
func (m *Map) Run(ctx context.Context, tick time.Duration) error {
	m.lifecycle = ctx
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	slog.Info("map loop started", "map", m.id, "instance", m.instanceID, "tick", tick)
	last := m.clock()
	for {
		select {
		case <-ctx.Done():
			slog.Info("map loop stopped", "map", m.id, "instance", m.instanceID)
			return ctx.Err()
		case <-ticker.C:
			now := m.clock()
			m.Update(now.Sub(last))
			last = now
		}
	}
}

func (m *Map) cellFor(pos model.Position) *Cell {
	cx, cy := CoordToCellIndex(pos.X, pos.Y)
	key := cellKey(cx, cy)
	cell, ok := m.cells[key]
	if !ok {
		cell = NewCell(cx, cy)
		m.cells[key] = cell
	}
	return cell
}

func cellKey(cx, cy int32) uint64 {
	return uint64(uint32(cx))<<32 | uint64(uint32(cy))
}

func (m *Map) label() string {
	return fmt.Sprintf("%d", m.id)
}
