package model

import (
	"math"

	"github.com/openwow/wowgo/internal/gameserver/packet"
)

// FieldFlags classifies who may see a replicated field. A viewer is granted a
// set of flags (public, owner, party, ...) and a field is included in its
// updates only if the field's class intersects the viewer's set.
type FieldFlags uint16

const (
	FieldFlagNone        FieldFlags = 0
	FieldFlagPublic      FieldFlags = 1 << 0 // everyone in range
	FieldFlagSelf        FieldFlags = 1 << 1 // only the entity itself
	FieldFlagOwner       FieldFlags = 1 << 2 // the owning/charming entity
	FieldFlagParty       FieldFlags = 1 << 3 // members of the owner's group
	FieldFlagUnitAll     FieldFlags = 1 << 4 // any unit viewer
	FieldFlagSpecialInfo FieldFlags = 1 << 5 // viewers with special-info auras
)

// FieldSchema fixes the size and per-field visibility classes for one
// concrete entity type. Schemas are built once at startup and shared.
type FieldSchema struct {
	size  int
	flags []FieldFlags
}

// NewFieldSchema creates a schema of the given size with all fields public.
func NewFieldSchema(size int) *FieldSchema {
	s := &FieldSchema{size: size, flags: make([]FieldFlags, size)}
	for i := range s.flags {
		s.flags[i] = FieldFlagPublic
	}
	return s
}

// SetFlags overrides the visibility class for fields [from, to].
func (s *FieldSchema) SetFlags(from, to int, flags FieldFlags) *FieldSchema {
	for i := from; i <= to && i < s.size; i++ {
		s.flags[i] = flags
	}
	return s
}

// Size returns the number of 32-bit slots.
func (s *FieldSchema) Size() int { return s.size }

// Flags returns the visibility class of field i.
func (s *FieldSchema) Flags(i int) FieldFlags { return s.flags[i] }

// ValueStore is the ordered array of typed replication slots plus the
// parallel dirty bitset. Every mutation goes through an equality gate: writing
// the current value is a complete no-op, setting neither the dirty bit nor
// the changed flag. Owned exclusively by its entity; only the owning map
// goroutine touches it.
type ValueStore struct {
	schema  *FieldSchema
	values  []uint32
	changes []uint32 // one dirty bit per slot
	changed bool
}

// NewValueStore allocates a store for the given schema. Size is fixed for the
// lifetime of the entity.
func NewValueStore(schema *FieldSchema) *ValueStore {
	return &ValueStore{
		schema:  schema,
		values:  make([]uint32, schema.size),
		changes: make([]uint32, (schema.size+31)/32),
	}
}

func (v *ValueStore) markChanged(i int) {
	v.changes[i/32] |= 1 << (i % 32)
	v.changed = true
}

// IsChanged reports whether field i has its dirty bit set.
func (v *ValueStore) IsChanged(i int) bool {
	return v.changes[i/32]&(1<<(i%32)) != 0
}

// HasChanges reports whether any dirty bit is set.
func (v *ValueStore) HasChanges() bool { return v.changed }

// ClearChanges resets the dirty mask. Called exactly once per flush, after
// every viewer's delta has been copied out.
func (v *ValueStore) ClearChanges() {
	for i := range v.changes {
		v.changes[i] = 0
	}
	v.changed = false
}

// Size returns the number of slots.
func (v *ValueStore) Size() int { return v.schema.size }

// GetUInt32 returns slot i as uint32.
func (v *ValueStore) GetUInt32(i int) uint32 { return v.values[i] }

// SetUInt32 writes slot i, reporting whether the stored value changed.
func (v *ValueStore) SetUInt32(i int, val uint32) bool {
	if v.values[i] == val {
		return false
	}
	v.values[i] = val
	v.markChanged(i)
	return true
}

// GetInt32 returns slot i as int32.
func (v *ValueStore) GetInt32(i int) int32 { return int32(v.values[i]) }

// SetInt32 writes slot i as int32.
func (v *ValueStore) SetInt32(i int, val int32) bool {
	return v.SetUInt32(i, uint32(val))
}

// GetFloat returns slot i as float32.
func (v *ValueStore) GetFloat(i int) float32 {
	return math.Float32frombits(v.values[i])
}

// SetFloat writes slot i as float32.
func (v *ValueStore) SetFloat(i int, val float32) bool {
	return v.SetUInt32(i, math.Float32bits(val))
}

// GetUInt64 reads slots i and i+1 as a packed 64-bit value.
func (v *ValueStore) GetUInt64(i int) uint64 {
	return uint64(v.values[i]) | uint64(v.values[i+1])<<32
}

// SetUInt64 writes a 64-bit value into slots i and i+1; each half is
// equality-gated independently.
func (v *ValueStore) SetUInt64(i int, val uint64) bool {
	lo := v.SetUInt32(i, uint32(val))
	hi := v.SetUInt32(i+1, uint32(val>>32))
	return lo || hi
}

// GetGuid reads slots i and i+1 as an ObjectGuid.
func (v *ValueStore) GetGuid(i int) ObjectGuid {
	return ObjectGuid(v.GetUInt64(i))
}

// SetGuid writes a guid into slots i and i+1.
func (v *ValueStore) SetGuid(i int, guid ObjectGuid) bool {
	return v.SetUInt64(i, uint64(guid))
}

// GetByte returns byte offset (0..3) of slot i.
func (v *ValueStore) GetByte(i int, offset uint8) uint8 {
	return uint8(v.values[i] >> (8 * offset))
}

// SetByte writes byte offset (0..3) of slot i.
func (v *ValueStore) SetByte(i int, offset uint8, val uint8) bool {
	cur := v.values[i]
	next := cur&^(0xFF<<(8*offset)) | uint32(val)<<(8*offset)
	return v.SetUInt32(i, next)
}

// SetFlag ORs flag into slot i. Inherits the equality gate: setting an
// already-set flag is a no-op.
func (v *ValueStore) SetFlag(i int, flag uint32) bool {
	return v.SetUInt32(i, v.values[i]|flag)
}

// RemoveFlag clears flag from slot i.
func (v *ValueStore) RemoveFlag(i int, flag uint32) bool {
	return v.SetUInt32(i, v.values[i]&^flag)
}

// HasFlag reports whether all bits of flag are set in slot i.
func (v *ValueStore) HasFlag(i int, flag uint32) bool {
	return v.values[i]&flag == flag
}

// ToggleFlag flips flag in slot i.
func (v *ValueStore) ToggleFlag(i int, flag uint32) bool {
	return v.SetUInt32(i, v.values[i]^flag)
}

// BuildCreate serializes the full field set filtered by the viewer's
// visibility flags: a mask-block count, the inclusion mask, then the included
// values in slot order. Zero-valued fields are omitted (the client zeroes the
// store on create). Never touches the dirty mask.
func (v *ValueStore) BuildCreate(w *packet.Writer, viewer FieldFlags) int {
	return v.build(w, viewer, false)
}

// BuildValues serializes only dirty fields filtered by the viewer's
// visibility flags. Returns the number of fields written; the caller clears
// the dirty mask once all viewers have been served.
func (v *ValueStore) BuildValues(w *packet.Writer, viewer FieldFlags) int {
	return v.build(w, viewer, true)
}

func (v *ValueStore) build(w *packet.Writer, viewer FieldFlags, dirtyOnly bool) int {
	blocks := len(v.changes)
	mask := make([]uint32, blocks)
	count := 0
	for i := 0; i < v.schema.size; i++ {
		if v.schema.flags[i]&viewer == 0 {
			continue
		}
		if dirtyOnly {
			if !v.IsChanged(i) {
				continue
			}
		} else if v.values[i] == 0 {
			continue
		}
		mask[i/32] |= 1 << (i % 32)
		count++
	}
	w.WriteByte(byte(blocks))
	for _, m := range mask {
		w.WriteUint32(m)
	}
	for i := 0; i < v.schema.size; i++ {
		if mask[i/32]&(1<<(i%32)) != 0 {
			w.WriteUint32(v.values[i])
		}
	}
	return count
}
