package model

import (
	"fmt"

	"github.com/openwow/wowgo/internal/gameserver/packet"
)

// Object is the replicated-entity base: identity, the typed field store with
// its dirty mask, and the incremental-update generation contract. Every
// simulated thing embeds Object.
type Object struct {
	guid   ObjectGuid
	typeID TypeID
	values *ValueStore

	inWorld       bool
	objectUpdated bool

	// updateSink is installed by the owning map; invoked the first time the
	// entity dirties a field after a flush so the map can queue it.
	updateSink func()

	// Data points at the outermost concrete type (Creature, Player) so
	// callers holding the base can recover it with a type assertion.
	Data any
}

func (o *Object) initObject(typeID TypeID, guid ObjectGuid, typeMask uint32) {
	o.typeID = typeID
	o.guid = guid
	o.values = NewValueStore(SchemaFor(typeID))
	o.values.SetGuid(FieldGuid, guid)
	o.values.SetUInt32(FieldType, typeMask)
	o.values.SetUInt32(FieldEntry, guid.Entry())
	o.values.SetFloat(FieldScale, 1.0)
	o.values.ClearChanges()
}

// GUID returns the entity's identity.
func (o *Object) GUID() ObjectGuid { return o.guid }

// TypeID returns the concrete replicated type.
func (o *Object) TypeID() TypeID { return o.typeID }

// Entry returns the template entry replicated in the field store.
func (o *Object) Entry() uint32 { return o.values.GetUInt32(FieldEntry) }

// SetEntry overrides the replicated entry (difficulty substitution).
func (o *Object) SetEntry(entry uint32) { o.setUInt32(FieldEntry, entry) }

// Scale returns the replicated object scale.
func (o *Object) Scale() float32 { return o.values.GetFloat(FieldScale) }

// SetScale overrides the replicated object scale.
func (o *Object) SetScale(scale float32) { o.setFloat(FieldScale, scale) }

// IsInWorld reports whether the entity is registered in spatial/broadcast
// structures.
func (o *Object) IsInWorld() bool { return o.inWorld }

// Values exposes the raw field store. Reserved for the flush pass and tests.
func (o *Object) Values() *ValueStore { return o.values }

// SetUpdateSink installs the map's dirty-entity queue hook.
func (o *Object) SetUpdateSink(fn func()) { o.updateSink = fn }

func (o *Object) markForUpdate() {
	if o.objectUpdated || !o.inWorld {
		return
	}
	o.objectUpdated = true
	if o.updateSink != nil {
		o.updateSink()
	}
}

// Field mutators. All route through the equality-gated store so writing the
// current value produces no dirty bit and no update registration.

func (o *Object) setUInt32(i int, v uint32) {
	if o.values.SetUInt32(i, v) {
		o.markForUpdate()
	}
}

func (o *Object) setInt32(i int, v int32) {
	if o.values.SetInt32(i, v) {
		o.markForUpdate()
	}
}

func (o *Object) setFloat(i int, v float32) {
	if o.values.SetFloat(i, v) {
		o.markForUpdate()
	}
}

func (o *Object) setGuidValue(i int, g ObjectGuid) {
	if o.values.SetGuid(i, g) {
		o.markForUpdate()
	}
}

func (o *Object) setByte(i int, offset, v uint8) {
	if o.values.SetByte(i, offset, v) {
		o.markForUpdate()
	}
}

func (o *Object) setFlag(i int, flag uint32) {
	if o.values.SetFlag(i, flag) {
		o.markForUpdate()
	}
}

func (o *Object) removeFlag(i int, flag uint32) {
	if o.values.RemoveFlag(i, flag) {
		o.markForUpdate()
	}
}

func (o *Object) toggleFlag(i int, flag uint32) {
	if o.values.ToggleFlag(i, flag) {
		o.markForUpdate()
	}
}

func (o *Object) hasFlag(i int, flag uint32) bool {
	return o.values.HasFlag(i, flag)
}

// BuildValuesBlock writes this entity's dirty fields filtered for the given
// viewer flags. Returns the number of fields written. Does not clear the
// dirty mask; the flush pass clears once per tick after all viewers.
func (o *Object) BuildValuesBlock(w *packet.Writer, viewer FieldFlags) int {
	return o.values.BuildValues(w, viewer)
}

// BuildCreateBlock writes the full filtered field snapshot for a viewer that
// is seeing the entity for the first time. Never clears the dirty mask:
// a newcomer must not suppress delta data owed to already-aware viewers.
func (o *Object) BuildCreateBlock(w *packet.Writer, viewer FieldFlags) int {
	return o.values.BuildCreate(w, viewer)
}

// ClearChanges resets the dirty mask after a completed flush.
func (o *Object) ClearChanges() {
	o.values.ClearChanges()
	o.objectUpdated = false
}

// Dispose asserts the teardown contract. Destroying an entity still
// registered in world, or one with unflushed updates, is an ownership
// violation.
func (o *Object) Dispose() {
	if o.inWorld {
		panic(fmt.Sprintf("disposing %s while still in world", o.guid))
	}
	if o.objectUpdated {
		panic(fmt.Sprintf("disposing %s with unflushed field updates", o.guid))
	}
}
