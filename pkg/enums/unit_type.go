package enums

import "fmt"

// UnitType maps to the unit_type enum in Postgres.
type UnitType string

const (
	UnitGram       UnitType = "gram"
	UnitMilliliter UnitType = "milliliter"
	UnitPiece      UnitType = "piece"
)

var validUnitTypes = []UnitType{
	UnitGram,
	UnitMilliliter,
	UnitPiece,
}

// IsValid reports whether the value matches the canonical unit_type enum.
func (u UnitType) IsValid() bool {
	for _, candidate := range validUnitTypes {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUnitType converts raw input into UnitType.
func ParseUnitType(value string) (UnitType, error) {
	for _, candidate := range validUnitTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit type %q", value)
}

func (u UnitType) String() string {
	return string(u)
}
