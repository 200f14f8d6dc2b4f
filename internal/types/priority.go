// internal/types/priority.go
package types

import "fmt"

// PriorityLevel выбирает профиль вычислительного бюджета операции.
type PriorityLevel string

const (
	PriorityLow     PriorityLevel = "low"
	PriorityMedium  PriorityLevel = "medium"
	PriorityHigh    PriorityLevel = "high"
	PriorityExtreme PriorityLevel = "extreme"
)

// MaxComputeUnits is the hard ceiling of any per-operation budget.
const MaxComputeUnits uint64 = 1_400_000

var computeProfiles = map[PriorityLevel]uint64{
	PriorityLow:     200_000,
	PriorityMedium:  400_000,
	PriorityHigh:    800_000,
	PriorityExtreme: MaxComputeUnits,
}

// ComputeUnits returns the compute budget for level. An empty level means
// the full ceiling.
func ComputeUnits(level PriorityLevel) (uint64, error) {
	if level == "" {
		return MaxComputeUnits, nil
	}
	units, ok := computeProfiles[level]
	if !ok {
		return 0, fmt.Errorf("unknown priority level: %s", level)
	}
	return units, nil
}
