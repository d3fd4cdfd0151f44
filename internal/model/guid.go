package model

import "fmt"

// HighGuid is the type discriminator packed into the top 16 bits of an
// ObjectGuid.
type HighGuid uint16

const (
	HighGuidPlayer        HighGuid = 0x0000
	HighGuidItem          HighGuid = 0x4000
	HighGuidGameObject    HighGuid = 0xF110
	HighGuidTransport     HighGuid = 0xF120
	HighGuidUnit          HighGuid = 0xF130
	HighGuidPet           HighGuid = 0xF140
	HighGuidVehicle       HighGuid = 0xF150
	HighGuidDynamicObject HighGuid = 0xF100
	HighGuidCorpse        HighGuid = 0xF101
	HighGuidAreaTrigger   HighGuid = 0xF102
)

// ObjectGuid is the globally unique identity of a world entity.
// Layout for entry-carrying types (units, game objects, vehicles, pets):
//
//	bits 0..23  map-relative counter
//	bits 24..47 template entry
//	bits 48..63 HighGuid discriminator
//
// Types without an entry (players, items, corpses) use the low 48 bits as a
// plain counter.
type ObjectGuid uint64

// EmptyGuid is the zero identity; it never refers to a live object.
const EmptyGuid ObjectGuid = 0

const (
	guidCounterMask      = 0x0000000000FFFFFF
	guidWideCounterMask  = 0x0000FFFFFFFFFFFF
	guidEntryMask        = 0x0000000000FFFFFF
	guidEntryShift       = 24
	guidHighShift        = 48
)

// NewGuid builds an identity for an entry-carrying type.
func NewGuid(high HighGuid, entry uint32, counter uint64) ObjectGuid {
	return ObjectGuid(counter&guidCounterMask |
		(uint64(entry)&guidEntryMask)<<guidEntryShift |
		uint64(high)<<guidHighShift)
}

// NewWideGuid builds an identity for a type without an entry, using the full
// 48-bit counter space.
func NewWideGuid(high HighGuid, counter uint64) ObjectGuid {
	return ObjectGuid(counter&guidWideCounterMask | uint64(high)<<guidHighShift)
}

// NewPlayerGuid builds a player identity from a persistent character id.
func NewPlayerGuid(counter uint64) ObjectGuid {
	return NewWideGuid(HighGuidPlayer, counter)
}

// High returns the type discriminator.
func (g ObjectGuid) High() HighGuid {
	return HighGuid(g >> guidHighShift)
}

// hasEntry reports whether this guid type packs a template entry.
func (h HighGuid) hasEntry() bool {
	switch h {
	case HighGuidUnit, HighGuidPet, HighGuidVehicle, HighGuidGameObject, HighGuidTransport:
		return true
	default:
		return false
	}
}

// Entry returns the template entry, or 0 for types without one.
func (g ObjectGuid) Entry() uint32 {
	if !g.High().hasEntry() {
		return 0
	}
	return uint32(g >> guidEntryShift & guidEntryMask)
}

// Counter returns the map-relative (or global) counter portion.
func (g ObjectGuid) Counter() uint64 {
	if g.High().hasEntry() {
		return uint64(g) & guidCounterMask
	}
	return uint64(g) & guidWideCounterMask
}

// IsEmpty reports whether the guid is the zero identity.
func (g ObjectGuid) IsEmpty() bool {
	return g == EmptyGuid
}

// IsPlayer reports whether this identity belongs to a player character.
func (g ObjectGuid) IsPlayer() bool {
	return !g.IsEmpty() && g.High() == HighGuidPlayer
}

// IsCreature reports whether this identity belongs to a creature (including
// pets and vehicles).
func (g ObjectGuid) IsCreature() bool {
	switch g.High() {
	case HighGuidUnit, HighGuidPet, HighGuidVehicle:
		return true
	default:
		return false
	}
}

// IsUnit reports whether this identity belongs to any unit (creature or
// player).
func (g ObjectGuid) IsUnit() bool {
	return g.IsCreature() || g.IsPlayer()
}

func (g ObjectGuid) String() string {
	if g.IsEmpty() {
		return "Guid(empty)"
	}
	if g.High().hasEntry() {
		return fmt.Sprintf("Guid(high:0x%X entry:%d counter:%d)", uint16(g.High()), g.Entry(), g.Counter())
	}
	return fmt.Sprintf("Guid(high:0x%X counter:%d)", uint16(g.High()), g.Counter())
}

// Low returns the low 32 bits, the half paired with High32 in the packed
// two-slot field-store representation.
func (g ObjectGuid) Low() uint32 {
	return uint32(g)
}

// High32 returns the high 32 bits of the raw value.
func (g ObjectGuid) High32() uint32 {
	return uint32(g >> 32)
}

// GuidGenerator hands out map-relative counters per HighGuid type.
// Counters are only ever advanced by the owning map's goroutine.
type GuidGenerator struct {
	next map[HighGuid]uint64
}

// NewGuidGenerator creates a generator with all counters starting at 1
// (counter 0 is reserved so EmptyGuid can never be produced).
func NewGuidGenerator() *GuidGenerator {
	return &GuidGenerator{next: make(map[HighGuid]uint64)}
}

// Next returns the next counter for the given type.
func (g *GuidGenerator) Next(high HighGuid) uint64 {
	g.next[high]++
	return g.next[high]
}
