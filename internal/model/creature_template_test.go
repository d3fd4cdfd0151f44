package model

import "testing"

func TestMergeStaticFlags_OverrideWinsPerGroup(t *testing.T) {
	template := [5]uint32{0xF, 0xF0, 0, 0, 0xF00}
	g1 := uint32(0x3)
	g4 := uint32(0)
	override := [5]*uint32{nil, &g1, nil, nil, &g4}

	h := MergeStaticFlags(template, override)

	if h.Group(0) != 0xF {
		t.Errorf("group 0 = %#x, want template value 0xF", h.Group(0))
	}
	if h.Group(1) != 0x3 {
		t.Errorf("group 1 = %#x, want override value 0x3", h.Group(1))
	}
	if h.Group(4) != 0 {
		t.Errorf("group 4 = %#x, want explicit zero override", h.Group(4))
	}
}

func TestStaticFlagsHolder_Has(t *testing.T) {
	h := MergeStaticFlags([5]uint32{1 << 2, 0, 1 << 0, 0, 0}, [5]*uint32{})

	if !h.Has(StaticFlagBossMob) {
		t.Error("boss flag should be set")
	}
	if !h.Has(StaticFlagSessile) {
		t.Error("sessile flag should be set")
	}
	if h.Has(StaticFlagNoMelee) {
		t.Error("no-melee flag should be clear")
	}
}

func TestCreatureTemplate_ModelSelectors(t *testing.T) {
	tpl := &CreatureTemplate{
		Models: []CreatureModel{
			{DisplayID: 0, Probability: 1},
			{DisplayID: 11686, Scale: 1, Probability: 1}, // trigger
			{DisplayID: 777, Scale: 1, Probability: 1},
		},
	}

	if m := tpl.FirstValidModel(); m == nil || m.DisplayID != 11686 {
		t.Errorf("FirstValidModel = %+v, want display 11686", m)
	}
	if m := tpl.FirstVisibleModel(); m.DisplayID != 777 {
		t.Errorf("FirstVisibleModel = %+v, want display 777", m)
	}
	if m := tpl.FirstInvisibleModel(); m.DisplayID != 11686 {
		t.Errorf("FirstInvisibleModel = %+v, want display 11686", m)
	}
	if m := tpl.ModelWithDisplayID(777); m == nil {
		t.Error("ModelWithDisplayID(777) should find the model")
	}
	if m := tpl.ModelWithDisplayID(42); m != nil {
		t.Error("ModelWithDisplayID(42) should return nil")
	}

	if m := tpl.RandomValidModel(); m == nil || m.DisplayID == 0 {
		t.Errorf("RandomValidModel = %+v, want a model with a display", m)
	}
}

func TestCreatureTemplate_NoValidModel(t *testing.T) {
	tpl := &CreatureTemplate{Models: []CreatureModel{{DisplayID: 0}}}
	if tpl.RandomValidModel() != nil {
		t.Error("template with only empty displays has no valid model")
	}
}

func TestCreatureTemplate_VitalsForLevel(t *testing.T) {
	tpl := &CreatureTemplate{MinLevel: 10, BaseHealth: 500, HealthPerLevel: 50, BaseMana: 100, ManaPerLevel: 10}

	if got := tpl.HealthFor(10); got != 500 {
		t.Errorf("HealthFor(min) = %d, want 500", got)
	}
	if got := tpl.HealthFor(13); got != 650 {
		t.Errorf("HealthFor(min+3) = %d, want 650", got)
	}
	if got := tpl.ManaFor(12); got != 120 {
		t.Errorf("ManaFor(min+2) = %d, want 120", got)
	}

	empty := &CreatureTemplate{}
	if got := empty.HealthFor(1); got != 1 {
		t.Errorf("zero-health template floors at 1, got %d", got)
	}
}

func TestTemplateStore_DifficultyChain(t *testing.T) {
	store := newTestStore()

	base := store.ForDifficulty(testEntryGrunt, 0)
	if base == nil || base.Entry != testEntryGrunt {
		t.Fatalf("difficulty 0 = %+v, want base entry", base)
	}

	hc := store.ForDifficulty(testEntryGrunt, 1)
	if hc == nil || hc.Entry != testEntryGruntHC {
		t.Fatalf("difficulty 1 = %+v, want heroic substitute", hc)
	}

	// Chain terminates at the first zero link.
	deep := store.ForDifficulty(testEntryGrunt, 3)
	if deep == nil || deep.Entry != testEntryGruntHC {
		t.Errorf("difficulty 3 = %+v, chain should stop at the heroic entry", deep)
	}

	if store.ForDifficulty(9999, 1) != nil {
		t.Error("unknown entry resolves to nil")
	}
}

func TestTemplateStore_MovementOverride(t *testing.T) {
	store := newTestStore()
	run := float32(11)
	store.SetMovementOverride(3, MovementOverride{RunSpeed: &run})

	o, ok := store.MovementOverrideFor(3)
	if !ok {
		t.Fatal("registered override should be found")
	}
	if o.RunSpeed == nil || *o.RunSpeed != 11 {
		t.Errorf("RunSpeed = %v, want 11", o.RunSpeed)
	}
	if o.WalkSpeed != nil {
		t.Error("absent WalkSpeed stays nil")
	}

	if _, ok := store.MovementOverrideFor(99); ok {
		t.Error("unregistered id should not be found")
	}
}

func TestTemplateStore_NilSafeLookup(t *testing.T) {
	var store *TemplateStore
	if store.Lookup(1) != nil {
		t.Error("nil store lookup returns nil")
	}
}
