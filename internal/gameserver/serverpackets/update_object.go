package serverpackets

import (
	"github.com/openwow/wowgo/internal/gameserver/packet"
	"github.com/openwow/wowgo/internal/model"
)

// Opcodes.
const (
	OpUpdateObject  uint16 = 0x0A09
	OpDestroyObject uint16 = 0x0AA4
)

// Update-block discriminators inside SMSG_UPDATE_OBJECT.
const (
	updateTypeValues        byte = 0
	updateTypeCreateObject  byte = 2
	updateTypeCreateObject2 byte = 3
	updateTypeOutOfRange    byte = 4
)

// Object-update flags on the movement block.
const (
	updateFlagSelf        uint16 = 0x0001
	updateFlagLiving      uint16 = 0x0020
	updateFlagPosition    uint16 = 0x0040
	updateFlagTransport   uint16 = 0x0002
)

// BuildCreate serializes the full viewer-filtered snapshot of obj plus its
// movement block, used the first time a viewer becomes aware of the entity.
// The dirty mask is deliberately left untouched.
func BuildCreate(obj *model.WorldObject, viewer *model.WorldObject) []byte {
	w := packet.Get()
	defer w.Put()

	w.WriteUint16(OpUpdateObject)
	w.WriteUint32(1) // block count
	w.WriteByte(updateTypeCreateObject2)
	w.WritePackedGuid(uint64(obj.GUID()))
	w.WriteByte(byte(obj.TypeID()))

	writeMovementBlock(w, obj, obj.GUID() == viewer.GUID())

	flags := model.ViewerFlagsFor(obj, viewer)
	obj.Values().BuildCreate(w, flags)

	return cloneBytes(w)
}

// BuildValues serializes only the dirty, viewer-visible fields. Returns nil
// when nothing is visible to this viewer. The caller clears the dirty mask
// once per flush pass, after every viewer has been served.
func BuildValues(obj *model.WorldObject, viewer *model.WorldObject) []byte {
	w := packet.Get()
	defer w.Put()

	w.WriteUint16(OpUpdateObject)
	w.WriteUint32(1)
	w.WriteByte(updateTypeValues)
	w.WritePackedGuid(uint64(obj.GUID()))

	flags := model.ViewerFlagsFor(obj, viewer)
	if obj.Values().BuildValues(w, flags) == 0 {
		return nil
	}
	return cloneBytes(w)
}

// BuildOutOfRange notifies a viewer that entities left its awareness without
// dying.
func BuildOutOfRange(guids []model.ObjectGuid) []byte {
	w := packet.Get()
	defer w.Put()

	w.WriteUint16(OpUpdateObject)
	w.WriteUint32(1)
	w.WriteByte(updateTypeOutOfRange)
	w.WriteUint32(uint32(len(guids)))
	for _, g := range guids {
		w.WritePackedGuid(uint64(g))
	}
	return cloneBytes(w)
}

// BuildDestroy removes an entity on the viewer's side, with a death-animation
// hint.
func BuildDestroy(guid model.ObjectGuid, deathAnim bool) []byte {
	w := packet.Get()
	defer w.Put()

	w.WriteUint16(OpDestroyObject)
	w.WriteUint64(uint64(guid))
	if deathAnim {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
	return cloneBytes(w)
}

// writeMovementBlock encodes position, velocity rates and transport
// attachment for the create form.
func writeMovementBlock(w *packet.Writer, obj *model.WorldObject, self bool) {
	flags := updateFlagPosition
	u := model.UnitFromObject(obj)
	if u != nil {
		flags |= updateFlagLiving
	}
	if self {
		flags |= updateFlagSelf
	}
	if obj.GetTransport() != nil {
		flags |= updateFlagTransport
	}
	w.WriteUint16(flags)

	pos := obj.AbsolutePosition()
	w.WriteFloat32(pos.X)
	w.WriteFloat32(pos.Y)
	w.WriteFloat32(pos.Z)
	w.WriteFloat32(pos.O)

	if u != nil {
		w.WriteUint32(uint32(u.MoveFlags()))
		w.WriteFloat32(u.WalkSpeed())
		w.WriteFloat32(u.RunSpeed())
	}
	if t := obj.GetTransport(); t != nil {
		w.WritePackedGuid(uint64(t.TransportGUID()))
		ofs := obj.TransportOffset()
		w.WriteFloat32(ofs.X)
		w.WriteFloat32(ofs.Y)
		w.WriteFloat32(ofs.Z)
		w.WriteFloat32(ofs.O)
	}
}

func cloneBytes(w *packet.Writer) []byte {
	out := make([]byte, w.Len())
	copy(out, w.Bytes())
	return out
}
