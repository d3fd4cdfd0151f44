package model

// ViewerFlagsFor computes the field-visibility classes viewer is entitled to
// when inspecting obj: public always, self for the entity itself, owner for
// the summoner/charmer, party for grouped players, plus the unit-wide class
// for any unit type.
func ViewerFlagsFor(obj *WorldObject, viewer *WorldObject) FieldFlags {
	flags := FieldFlagPublic
	if obj == nil || viewer == nil {
		return flags
	}
	if obj.GUID() == viewer.GUID() {
		flags |= FieldFlagSelf
	}
	if u := UnitFromObject(obj); u != nil {
		flags |= FieldFlagUnitAll
		if g := u.CharmerOrOwnerGUID(); !g.IsEmpty() && g == viewer.GUID() {
			flags |= FieldFlagOwner
		}
		if u.HasDynamicFlag(DynFlagSpecialInfo) {
			flags |= FieldFlagSpecialInfo
		}
	}
	if op, ok := obj.Data.(*Player); ok {
		if vp, ok := viewer.Data.(*Player); ok && vp.IsInSameGroupWith(op) {
			flags |= FieldFlagParty
		}
	}
	return flags
}
