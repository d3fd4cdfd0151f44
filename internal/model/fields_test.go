package model

import (
	"testing"

	"github.com/openwow/wowgo/internal/gameserver/packet"
)

func TestValueStore_EqualityGate(t *testing.T) {
	v := NewValueStore(NewFieldSchema(8))

	if !v.SetUInt32(3, 42) {
		t.Fatal("SetUInt32 with a new value should report a change")
	}
	if !v.IsChanged(3) {
		t.Error("field 3 should be dirty after first write")
	}

	v.ClearChanges()
	if v.SetUInt32(3, 42) {
		t.Error("SetUInt32 with the current value should be a no-op")
	}
	if v.IsChanged(3) {
		t.Error("rewriting the current value must not set the dirty bit")
	}
	if v.HasChanges() {
		t.Error("rewriting the current value must not set the changed flag")
	}
}

func TestValueStore_EqualityGateFlags(t *testing.T) {
	v := NewValueStore(NewFieldSchema(4))
	v.SetFlag(0, 0x4)
	v.ClearChanges()

	if v.SetFlag(0, 0x4) {
		t.Error("setting an already-set flag should be a no-op")
	}
	if v.RemoveFlag(0, 0x8) {
		t.Error("removing an absent flag should be a no-op")
	}
	if v.HasChanges() {
		t.Error("no-op flag writes must leave the store clean")
	}
}

func TestValueStore_Uint64SpansTwoSlots(t *testing.T) {
	v := NewValueStore(NewFieldSchema(4))
	v.SetUInt64(0, 0xAABBCCDD11223344)

	if got := v.GetUInt64(0); got != 0xAABBCCDD11223344 {
		t.Errorf("GetUInt64 = %#x, want 0xAABBCCDD11223344", got)
	}
	if !v.IsChanged(0) || !v.IsChanged(1) {
		t.Error("both halves of a 64-bit write should be dirty")
	}

	// Changing only the high half dirties only that slot.
	v.ClearChanges()
	v.SetUInt64(0, 0xAABBCCEE11223344)
	if v.IsChanged(0) {
		t.Error("unchanged low half should stay clean")
	}
	if !v.IsChanged(1) {
		t.Error("changed high half should be dirty")
	}
}

func TestValueStore_SetByte(t *testing.T) {
	v := NewValueStore(NewFieldSchema(2))
	v.SetUInt32(0, 0x11223344)
	v.ClearChanges()

	v.SetByte(0, 2, 0xAA)
	if got := v.GetUInt32(0); got != 0x11AA3344 {
		t.Errorf("after SetByte, slot = %#x, want 0x11AA3344", got)
	}
	if got := v.GetByte(0, 2); got != 0xAA {
		t.Errorf("GetByte = %#x, want 0xAA", got)
	}

	if v.SetByte(0, 2, 0xAA) {
		t.Error("rewriting the same byte should be a no-op")
	}
}

func TestValueStore_BuildValuesFiltersByViewer(t *testing.T) {
	schema := NewFieldSchema(8).SetFlags(4, 5, FieldFlagSelf)
	v := NewValueStore(schema)
	v.SetUInt32(1, 100)
	v.SetUInt32(4, 200)

	w := packet.Get()
	defer w.Put()
	if n := v.BuildValues(w, FieldFlagPublic); n != 1 {
		t.Errorf("public viewer got %d fields, want 1", n)
	}

	w2 := packet.Get()
	defer w2.Put()
	if n := v.BuildValues(w2, FieldFlagPublic|FieldFlagSelf); n != 2 {
		t.Errorf("self viewer got %d fields, want 2", n)
	}
}

func TestValueStore_BuildValuesDoesNotClear(t *testing.T) {
	v := NewValueStore(NewFieldSchema(4))
	v.SetUInt32(0, 7)

	// Two viewers in sequence must both see the delta.
	for i := 0; i < 2; i++ {
		w := packet.Get()
		if n := v.BuildValues(w, FieldFlagPublic); n != 1 {
			t.Errorf("viewer %d got %d fields, want 1", i, n)
		}
		w.Put()
	}

	v.ClearChanges()
	w := packet.Get()
	defer w.Put()
	if n := v.BuildValues(w, FieldFlagPublic); n != 0 {
		t.Errorf("after ClearChanges got %d fields, want 0", n)
	}
}

func TestValueStore_BuildCreateSkipsZeroes(t *testing.T) {
	v := NewValueStore(NewFieldSchema(8))
	v.SetUInt32(2, 55)
	v.SetUInt32(5, 0) // no-op, stays zero
	v.ClearChanges()

	w := packet.Get()
	defer w.Put()
	if n := v.BuildCreate(w, FieldFlagPublic); n != 1 {
		t.Errorf("create block carries %d fields, want 1", n)
	}
	if v.HasChanges() {
		t.Error("BuildCreate must not touch the dirty mask")
	}
}

func TestObject_EqualityGateThroughEntity(t *testing.T) {
	p := NewPlayer(1, "Tester", TeamAlliance)

	p.SetLevel(p.Level())
	if p.Values().HasChanges() {
		t.Error("writing the current level must leave the entity clean")
	}

	p.SetLevel(p.Level() + 1)
	if !p.Values().HasChanges() {
		t.Error("a real level change must dirty the entity")
	}
}
