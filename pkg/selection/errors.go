package selection

import (
	"fmt"

	"pqctdensity/pkg/config"
)

// AmbiguousSelectionError is returned when a selection rule asks for a
// region that was not found, e.g. the second largest bone in a slice with a
// single bone.
type AmbiguousSelectionError struct {
	Rule    config.SelectionRule
	Regions int
	Reason  string
}

func (e *AmbiguousSelectionError) Error() string {
	return fmt.Sprintf("cannot apply selection rule %s to %d regions: %s", e.Rule, e.Regions, e.Reason)
}
