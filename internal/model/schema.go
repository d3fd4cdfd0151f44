package model

// TypeID discriminates the concrete replicated type.
type TypeID uint8

const (
	TypeIDObject TypeID = iota
	TypeIDItem
	TypeIDContainer
	TypeIDUnit
	TypeIDPlayer
	TypeIDGameObject
	TypeIDDynamicObject
	TypeIDCorpse
	TypeIDAreaTrigger
)

// TypeMask bits mirror the TypeID hierarchy in the object-type field.
const (
	TypeMaskObject     uint32 = 0x0001
	TypeMaskItem       uint32 = 0x0002
	TypeMaskUnit       uint32 = 0x0008
	TypeMaskPlayer     uint32 = 0x0010
	TypeMaskGameObject uint32 = 0x0020
)

// Object-level field indices, shared by every replicated type.
const (
	FieldGuid  = 0 // uint64, 2 slots
	FieldType  = 2
	FieldEntry = 3
	FieldScale = 4 // float

	objectFieldEnd = 5
)

// Unit-level field indices.
const (
	UnitFieldHealth          = objectFieldEnd + 0
	UnitFieldMaxHealth       = objectFieldEnd + 1
	UnitFieldPower           = objectFieldEnd + 2
	UnitFieldMaxPower        = objectFieldEnd + 3
	UnitFieldLevel           = objectFieldEnd + 4
	UnitFieldFactionTemplate = objectFieldEnd + 5
	UnitFieldFlags           = objectFieldEnd + 6
	UnitFieldFlags2          = objectFieldEnd + 7
	UnitFieldNpcFlags        = objectFieldEnd + 8
	UnitFieldDynamicFlags    = objectFieldEnd + 9 // tapped/lootable hints
	UnitFieldDisplayID       = objectFieldEnd + 10
	UnitFieldNativeDisplayID = objectFieldEnd + 11
	UnitFieldMountDisplayID  = objectFieldEnd + 12
	UnitFieldBytes1          = objectFieldEnd + 13 // stand state, anim tier
	UnitFieldBytes2          = objectFieldEnd + 14 // pvp state, shapeshift
	UnitFieldCombatReach     = objectFieldEnd + 15 // float
	UnitFieldBoundingRadius  = objectFieldEnd + 16 // float
	UnitFieldAttackTime      = objectFieldEnd + 17
	UnitFieldRangedAttackTime = objectFieldEnd + 18
	UnitFieldMinDamage       = objectFieldEnd + 19 // float
	UnitFieldMaxDamage       = objectFieldEnd + 20 // float
	UnitFieldTarget          = objectFieldEnd + 21 // guid, 2 slots
	UnitFieldCharmedBy       = objectFieldEnd + 23 // guid, 2 slots
	UnitFieldSummonedBy      = objectFieldEnd + 25 // guid, 2 slots
	UnitFieldCreatedBy       = objectFieldEnd + 27 // guid, 2 slots
	UnitFieldChannelSpell    = objectFieldEnd + 29

	unitFieldEnd = objectFieldEnd + 30
)

// Player-level field indices.
const (
	PlayerFieldFlags     = unitFieldEnd + 0
	PlayerFieldDuelTeam  = unitFieldEnd + 1
	PlayerFieldCoinage   = unitFieldEnd + 2 // uint64, 2 slots
	PlayerFieldXP        = unitFieldEnd + 4

	playerFieldEnd = unitFieldEnd + 5
)

var (
	unitSchema   *FieldSchema
	playerSchema *FieldSchema
)

func init() {
	unitSchema = NewFieldSchema(unitFieldEnd).
		SetFlags(UnitFieldDynamicFlags, UnitFieldDynamicFlags, FieldFlagPublic|FieldFlagSpecialInfo).
		SetFlags(UnitFieldChannelSpell, UnitFieldChannelSpell, FieldFlagPublic|FieldFlagUnitAll)

	playerSchema = NewFieldSchema(playerFieldEnd).
		SetFlags(UnitFieldDynamicFlags, UnitFieldDynamicFlags, FieldFlagPublic|FieldFlagSpecialInfo).
		SetFlags(PlayerFieldCoinage, PlayerFieldCoinage+1, FieldFlagSelf).
		SetFlags(PlayerFieldXP, PlayerFieldXP, FieldFlagSelf|FieldFlagParty)
}

// SchemaFor returns the shared field schema for a type.
func SchemaFor(id TypeID) *FieldSchema {
	switch id {
	case TypeIDPlayer:
		return playerSchema
	case TypeIDUnit:
		return unitSchema
	default:
		return unitSchema
	}
}
