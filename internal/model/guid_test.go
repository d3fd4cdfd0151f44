package model

import "testing"

func TestNewGuid_Packing(t *testing.T) {
	g := NewGuid(HighGuidUnit, 1234, 567)

	if g.High() != HighGuidUnit {
		t.Errorf("High() = %#x, want %#x", uint16(g.High()), uint16(HighGuidUnit))
	}
	if g.Entry() != 1234 {
		t.Errorf("Entry() = %d, want 1234", g.Entry())
	}
	if g.Counter() != 567 {
		t.Errorf("Counter() = %d, want 567", g.Counter())
	}
}

func TestNewPlayerGuid_NoEntry(t *testing.T) {
	g := NewPlayerGuid(99)

	if !g.IsPlayer() {
		t.Error("player guid should report IsPlayer")
	}
	if g.Entry() != 0 {
		t.Errorf("player guid Entry() = %d, want 0", g.Entry())
	}
	if g.Counter() != 99 {
		t.Errorf("Counter() = %d, want 99", g.Counter())
	}
}

func TestObjectGuid_TypePredicates(t *testing.T) {
	unit := NewGuid(HighGuidUnit, 1, 1)
	pet := NewGuid(HighGuidPet, 1, 1)
	player := NewPlayerGuid(1)

	if !unit.IsCreature() || !pet.IsCreature() {
		t.Error("unit and pet guids should report IsCreature")
	}
	if player.IsCreature() {
		t.Error("player guid must not report IsCreature")
	}
	if !unit.IsUnit() || !player.IsUnit() {
		t.Error("both creatures and players report IsUnit")
	}
	if EmptyGuid.IsPlayer() {
		t.Error("the empty guid is not a player")
	}
	if !EmptyGuid.IsEmpty() {
		t.Error("EmptyGuid should report IsEmpty")
	}
}

func TestGuidGenerator_NeverProducesZero(t *testing.T) {
	gen := NewGuidGenerator()

	first := gen.Next(HighGuidUnit)
	if first != 1 {
		t.Errorf("first counter = %d, want 1", first)
	}
	if NewGuid(HighGuidUnit, 5, first).IsEmpty() {
		t.Error("generated guid must never be empty")
	}
}

func TestGuidGenerator_IndependentCounters(t *testing.T) {
	gen := NewGuidGenerator()

	gen.Next(HighGuidUnit)
	gen.Next(HighGuidUnit)
	if got := gen.Next(HighGuidPet); got != 1 {
		t.Errorf("pet counter = %d, want 1 (counters are per type)", got)
	}
}

func TestObjectGuid_LowHigh32RoundTrip(t *testing.T) {
	g := NewGuid(HighGuidUnit, 44000, 123456)

	rebuilt := ObjectGuid(uint64(g.Low()) | uint64(g.High32())<<32)
	if rebuilt != g {
		t.Errorf("Low/High32 round trip = %v, want %v", rebuilt, g)
	}
}
