package model

import (
	"math"
	"time"
)

// Stealth and invisibility type enumerations. Each kind of concealment is a
// separate channel with its own magnitude; detection is matched per channel.
const (
	StealthGeneral = 0
	StealthTrap    = 1
	stealthTypes   = 2

	InvisibilityGeneral = 0
	InvisibilityTrap    = 3
	InvisibilityDrunk   = 6
	invisibilityTypes   = 12

	ServerSideVisibilityGM    = 0
	ServerSideVisibilityGhost = 1
	serverSideVisibilityTypes = 2
)

// Ghost-visibility channel bitmask values.
const (
	GhostVisibilityAlive uint32 = 1 << 0
	GhostVisibilityGhost uint32 = 1 << 1
)

// FlaggedValues is a bitmask of active types plus a signed magnitude per
// type. Used for stealth, invisibility and their detection counterparts.
type FlaggedValues struct {
	flags  uint32
	values []int32
}

// NewFlaggedValues creates a FlaggedValues with n typed slots.
func NewFlaggedValues(n int) FlaggedValues {
	return FlaggedValues{values: make([]int32, n)}
}

// Flags returns the bitmask of active types.
func (f *FlaggedValues) Flags() uint32 { return f.flags }

// HasFlag reports whether type t is active.
func (f *FlaggedValues) HasFlag(t int) bool { return f.flags&(1<<t) != 0 }

// AddFlag marks type t active.
func (f *FlaggedValues) AddFlag(t int) { f.flags |= 1 << t }

// DelFlag marks type t inactive.
func (f *FlaggedValues) DelFlag(t int) { f.flags &^= 1 << t }

// SetValue replaces the magnitude of type t.
func (f *FlaggedValues) SetValue(t int, v int32) { f.values[t] = v }

// AddValue adjusts the magnitude of type t.
func (f *FlaggedValues) AddValue(t int, delta int32) { f.values[t] += delta }

// Value returns the magnitude of type t.
func (f *FlaggedValues) Value(t int) int32 { return f.values[t] }

// PhaseShift is the set of phase tokens partitioning mutual visibility.
type PhaseShift struct {
	phases map[uint32]struct{}
}

// DefaultPhase is the token every entity carries unless explicitly shifted.
const DefaultPhase uint32 = 1

// NewPhaseShift creates a shift containing only the default phase.
func NewPhaseShift() PhaseShift {
	return PhaseShift{phases: map[uint32]struct{}{DefaultPhase: {}}}
}

// Add inserts a phase token.
func (p *PhaseShift) Add(phase uint32) { p.phases[phase] = struct{}{} }

// Remove drops a phase token.
func (p *PhaseShift) Remove(phase uint32) { delete(p.phases, phase) }

// Clear drops every token, leaving the entity in no phase.
func (p *PhaseShift) Clear() { p.phases = make(map[uint32]struct{}) }

// Has reports whether the shift contains phase.
func (p *PhaseShift) Has(phase uint32) bool {
	_, ok := p.phases[phase]
	return ok
}

// CanSee reports whether two shifts intersect.
func (p *PhaseShift) CanSee(other *PhaseShift) bool {
	a, b := p.phases, other.phases
	if len(b) < len(a) {
		a, b = b, a
	}
	for phase := range a {
		if _, ok := b[phase]; ok {
			return true
		}
	}
	return false
}

// Transport is the moving-platform collaborator a WorldObject may ride.
type Transport interface {
	TransportGUID() ObjectGuid
	TransportPosition() Position
}

// WorldContext is the surface the owning map exposes to its entities:
// object resolution, spatial queries, terrain, and the persisted
// respawn-time table. Implemented by world.Map; tests substitute fakes.
type WorldContext interface {
	Now() time.Time
	MapID() uint32
	InstanceID() uint32
	IsDungeon() bool
	IsRaid() bool

	FindWorldObject(guid ObjectGuid) *WorldObject
	ForEachInRange(center Position, radius float32, fn func(*WorldObject) bool)
	InLineOfSight(from, to Position) bool
	ZoneAndArea(pos Position) (zoneID, areaID uint32)
	VisibilityRange() float32

	SaveRespawnTime(spawnID uint64, t time.Time)
	RespawnTimeFor(spawnID uint64) time.Time
	RemoveRespawnTime(spawnID uint64)
	ScheduleRespawn(spawnID uint64, entry uint32, at time.Time)
	IsSpawnGroupActive(groupID uint32) bool
	LinkedRespawnFor(spawnID uint64) uint64
	RespawnRate() float64

	ObjectDestroyedForNearby(obj *WorldObject)
}

// areaGridGranularity is how far an entity may drift before its cached
// zone/area must be recomputed.
const areaGridGranularity = 33.3333

// WorldObject extends the replicated base with map placement, phase
// partitioning, concealment/detection state and the spatial query surface.
type WorldObject struct {
	Object

	name     string
	position Position

	zoneID uint32
	areaID uint32
	// anchor of the last zone/area refresh; beyond areaGridGranularity the
	// cached ids are stale and recomputed on the next relocate
	areaAnchor Position

	phase PhaseShift

	transport    Transport
	transportOfs Position

	visibilityOverride float32 // explicit sight-range override, 0 = default
	farVisible         bool

	stealth            FlaggedValues
	stealthDetect      FlaggedValues
	invisibility       FlaggedValues
	invisibilityDetect FlaggedValues

	serverSideVisibility       FlaggedValues
	serverSideVisibilityDetect FlaggedValues

	privateObjectOwner ObjectGuid

	despawnInvisible bool

	ctx WorldContext
}

func (w *WorldObject) initWorldObject(typeID TypeID, guid ObjectGuid, typeMask uint32, name string) {
	w.initObject(typeID, guid, typeMask|TypeMaskObject)
	w.name = name
	w.phase = NewPhaseShift()
	w.stealth = NewFlaggedValues(stealthTypes)
	w.stealthDetect = NewFlaggedValues(stealthTypes)
	w.invisibility = NewFlaggedValues(invisibilityTypes)
	w.invisibilityDetect = NewFlaggedValues(invisibilityTypes)
	w.serverSideVisibility = NewFlaggedValues(serverSideVisibilityTypes)
	w.serverSideVisibilityDetect = NewFlaggedValues(serverSideVisibilityTypes)
	w.serverSideVisibility.SetValue(ServerSideVisibilityGhost, int32(GhostVisibilityAlive))
	w.serverSideVisibilityDetect.SetValue(ServerSideVisibilityGhost, int32(GhostVisibilityAlive))
}

// Name returns the display name.
func (w *WorldObject) Name() string { return w.name }

// SetName replaces the display name.
func (w *WorldObject) SetName(name string) { w.name = name }

// Context returns the owning map surface, nil before map placement.
func (w *WorldObject) Context() WorldContext {
	return w.ctx
}

// SetContext wires the owning map. Re-parenting to a second map without
// releasing the first is an ownership violation.
func (w *WorldObject) SetContext(ctx WorldContext) {
	if w.ctx != nil && ctx != nil && w.ctx != ctx {
		panic("re-parenting " + w.GUID().String() + " to a second map")
	}
	w.ctx = ctx
}

// HasContext reports whether the entity is attached to a map.
func (w *WorldObject) HasContext() bool { return w.ctx != nil }

// AddToWorld registers the entity into spatial/broadcast structures.
func (w *WorldObject) AddToWorld() { w.inWorld = true }

// RemoveFromWorld deregisters the entity. Field state survives; identity is
// only released by Dispose.
func (w *WorldObject) RemoveFromWorld() { w.inWorld = false }

// Position returns the current map position.
func (w *WorldObject) Position() Position { return w.position }

// AbsolutePosition resolves transport attachment: when riding, the absolute
// position is the transport's position plus the stored offset.
func (w *WorldObject) AbsolutePosition() Position {
	if w.transport == nil {
		return w.position
	}
	tp := w.transport.TransportPosition()
	return NewPosition(tp.X+w.transportOfs.X, tp.Y+w.transportOfs.Y, tp.Z+w.transportOfs.Z, w.transportOfs.O)
}

// Relocate moves the entity, refreshing the cached zone/area once the move
// exceeds the area-grid granularity.
func (w *WorldObject) Relocate(pos Position) {
	w.position = pos
	if w.ctx != nil && w.position.ExactDist2D(w.areaAnchor) > areaGridGranularity {
		w.refreshZoneArea()
	}
}

func (w *WorldObject) refreshZoneArea() {
	w.zoneID, w.areaID = w.ctx.ZoneAndArea(w.position)
	w.areaAnchor = w.position
}

// ZoneID returns the cached zone id.
func (w *WorldObject) ZoneID() uint32 { return w.zoneID }

// AreaID returns the cached area id.
func (w *WorldObject) AreaID() uint32 { return w.areaID }

// Phase returns the entity's phase shift for mutation.
func (w *WorldObject) Phase() *PhaseShift { return &w.phase }

// InSamePhase reports whether both entities' phase sets intersect.
func (w *WorldObject) InSamePhase(other *WorldObject) bool {
	return w.phase.CanSee(&other.phase)
}

// Transport accessors.

// SetTransport attaches the entity to a moving platform at the given offset.
func (w *WorldObject) SetTransport(t Transport, offset Position) {
	w.transport = t
	w.transportOfs = offset
}

// GetTransport returns the attached transport, or nil.
func (w *WorldObject) GetTransport() Transport { return w.transport }

// TransportOffset returns the position relative to the attached transport.
func (w *WorldObject) TransportOffset() Position { return w.transportOfs }

// SetVisibilityRange installs an explicit sight-range override (0 restores
// the map default).
func (w *WorldObject) SetVisibilityRange(r float32) { w.visibilityOverride = r }

// SetFarVisible marks the entity visible at any distance within its map.
func (w *WorldObject) SetFarVisible(v bool) { w.farVisible = v }

// VisibilityRange returns the distance at which this entity is offered to
// viewers.
func (w *WorldObject) VisibilityRange() float32 {
	switch {
	case w.farVisible:
		return math.MaxFloat32
	case w.visibilityOverride > 0:
		return w.visibilityOverride
	case w.ctx != nil:
		return w.ctx.VisibilityRange()
	default:
		return defaultVisibilityRange
	}
}

// SightRange returns how far this entity can see the target.
func (w *WorldObject) SightRange(target *WorldObject) float32 {
	if target == nil {
		return w.VisibilityRange()
	}
	return target.VisibilityRange()
}

// Concealment state accessors.

// Stealth returns the stealth channel state for mutation.
func (w *WorldObject) Stealth() *FlaggedValues { return &w.stealth }

// StealthDetect returns the stealth-detection state for mutation.
func (w *WorldObject) StealthDetect() *FlaggedValues { return &w.stealthDetect }

// Invisibility returns the invisibility channel state for mutation.
func (w *WorldObject) Invisibility() *FlaggedValues { return &w.invisibility }

// InvisibilityDetect returns the invisibility-detection state for mutation.
func (w *WorldObject) InvisibilityDetect() *FlaggedValues { return &w.invisibilityDetect }

// ServerSideVisibility returns the GM/ghost visibility state for mutation.
func (w *WorldObject) ServerSideVisibility() *FlaggedValues { return &w.serverSideVisibility }

// ServerSideVisibilityDetect returns the GM/ghost detection state.
func (w *WorldObject) ServerSideVisibilityDetect() *FlaggedValues {
	return &w.serverSideVisibilityDetect
}

// PrivateObjectOwner returns the owner of a personal-vision object, or empty.
func (w *WorldObject) PrivateObjectOwner() ObjectGuid { return w.privateObjectOwner }

// SetPrivateObjectOwner restricts visibility of this entity to one owner (and
// the owner's group).
func (w *WorldObject) SetPrivateObjectOwner(guid ObjectGuid) { w.privateObjectOwner = guid }

// SetDespawnInvisible hides the entity during its despawn fade.
func (w *WorldObject) SetDespawnInvisible(v bool) { w.despawnInvisible = v }

// IsInvisibleDueToDespawn reports the despawn-fade override.
func (w *WorldObject) IsInvisibleDueToDespawn() bool { return w.despawnInvisible }

// Spatial query surface.

// GetDistance returns the 3D distance to other.
func (w *WorldObject) GetDistance(other *WorldObject) float32 {
	return w.position.ExactDist(other.position)
}

// GetDistance2D returns the 2D distance to other.
func (w *WorldObject) GetDistance2D(other *WorldObject) float32 {
	return w.position.ExactDist2D(other.position)
}

// IsWithinDist reports whether other is within dist.
func (w *WorldObject) IsWithinDist(other *WorldObject, dist float32) bool {
	return w.position.IsWithinDist(other.position, dist)
}

// IsWithinLOS reports whether terrain permits a straight sightline to other.
func (w *WorldObject) IsWithinLOS(other *WorldObject) bool {
	if w.ctx == nil {
		return true
	}
	return w.ctx.InLineOfSight(w.position, other.position)
}

// IsWithinLOSInMap combines the map and LOS gates.
func (w *WorldObject) IsWithinLOSInMap(other *WorldObject) bool {
	if !w.InMap(other) {
		return false
	}
	return w.IsWithinLOS(other)
}

// InMap reports whether both entities are placed on the same map instance.
func (w *WorldObject) InMap(other *WorldObject) bool {
	return w.ctx != nil && other.ctx != nil && w.ctx == other.ctx
}

// FindNearestCreature returns the closest creature with the given entry
// within radius, or nil.
func (w *WorldObject) FindNearestCreature(entry uint32, radius float32, aliveOnly bool) *Creature {
	if w.ctx == nil {
		return nil
	}
	var nearest *Creature
	best := radius
	w.ctx.ForEachInRange(w.position, radius, func(obj *WorldObject) bool {
		c, ok := obj.Data.(*Creature)
		if !ok || c.Entry() != entry {
			return true
		}
		if aliveOnly && !c.IsAlive() {
			return true
		}
		if d := w.GetDistance(obj); d <= best {
			best = d
			nearest = c
		}
		return true
	})
	return nearest
}

// defaultVisibilityRange applies before map placement and in tests.
const defaultVisibilityRange = 90.0
