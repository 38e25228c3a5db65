package enums

import "fmt"

// ConsumptionStatus maps to the consumption_status enum in Postgres.
type ConsumptionStatus string

const (
	ConsumptionPending    ConsumptionStatus = "pending"
	ConsumptionConsumed   ConsumptionStatus = "consumed"
	ConsumptionRolledBack ConsumptionStatus = "rolled_back"
)

var validConsumptionStatuses = []ConsumptionStatus{
	ConsumptionPending,
	ConsumptionConsumed,
	ConsumptionRolledBack,
}

// IsValid reports whether the value matches the canonical consumption_status enum.
func (s ConsumptionStatus) IsValid() bool {
	for _, candidate := range validConsumptionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseConsumptionStatus converts raw input into ConsumptionStatus.
func ParseConsumptionStatus(value string) (ConsumptionStatus, error) {
	for _, candidate := range validConsumptionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid consumption status %q", value)
}
