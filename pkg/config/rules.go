package config

import "fmt"

// SelectionRule chooses which traced region is the bone of interest.
type SelectionRule int

const (
	Bigger SelectionRule = iota
	Smaller
	Left
	Right
	Top
	Bottom
	Central
	Peripheral
	SecondLargest
	TwoLargestLeft
	TwoLargestRight
	FirstFromLeft
	SecondFromLeft
	ThirdFromLeft
	FourthFromLeft
	FifthFromLeft
	FirstFromTop
	SecondFromTop
	ThirdFromTop
	FourthFromTop
	FifthFromTop
)

var selectionLabels = [...]string{
	"Bigger", "Smaller", "Left", "Right", "Top", "Bottom", "Central",
	"Peripheral", "SecondLargest", "TwoLargestLeft", "TwoLargestRight",
	"FirstFromLeft", "SecondFromLeft", "ThirdFromLeft", "FourthFromLeft",
	"FifthFromLeft", "FirstFromTop", "SecondFromTop", "ThirdFromTop",
	"FourthFromTop", "FifthFromTop",
}

// SelectionRules lists every rule in declaration order.
func SelectionRules() []SelectionRule {
	rules := make([]SelectionRule, len(selectionLabels))
	for i := range rules {
		rules[i] = SelectionRule(i)
	}
	return rules
}

func (r SelectionRule) String() string {
	if r < 0 || int(r) >= len(selectionLabels) {
		return fmt.Sprintf("SelectionRule(%d)", int(r))
	}
	return selectionLabels[r]
}

// Valid reports whether r is a declared rule.
func (r SelectionRule) Valid() bool {
	return r >= 0 && int(r) < len(selectionLabels)
}

// NthFromLeft returns the 0-based rank for the FirstFromLeft..FifthFromLeft
// rules.
func (r SelectionRule) NthFromLeft() (int, bool) {
	if r >= FirstFromLeft && r <= FifthFromLeft {
		return int(r - FirstFromLeft), true
	}
	return 0, false
}

// NthFromTop returns the 0-based rank for the FirstFromTop..FifthFromTop
// rules.
func (r SelectionRule) NthFromTop() (int, bool) {
	if r >= FirstFromTop && r <= FifthFromTop {
		return int(r - FirstFromTop), true
	}
	return 0, false
}

func (r SelectionRule) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("unknown selection rule %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *SelectionRule) UnmarshalText(text []byte) error {
	for i, label := range selectionLabels {
		if label == string(text) {
			*r = SelectionRule(i)
			return nil
		}
	}
	return fmt.Errorf("unknown selection rule %q", string(text))
}

// RotationRule chooses how the principal rotation angle is determined.
type RotationRule int

const (
	// MomentAlignment aligns the larger principal moment of the selected
	// sieve with the horizontal axis
	MomentAlignment RotationRule = iota

	// FurthestPoint rotates towards the boundary point furthest from the
	// marrow centre
	FurthestPoint

	// AllBonesMomentAlignment uses every pixel above the rotation
	// threshold instead of the selected sieve
	AllBonesMomentAlignment

	// NotSelectedToRight places the other large bone to the right of the
	// selected one
	NotSelectedToRight

	// SelectedToRight places the selected bone to the right of the other
	// large bone
	SelectedToRight
)

var rotationLabels = [...]string{
	"According_to_Imax/Imin",
	"Furthest_point",
	"All_Bones_Imax/Imin",
	"Not_selected_to_right",
	"Selected_to_right",
}

func (r RotationRule) String() string {
	if r < 0 || int(r) >= len(rotationLabels) {
		return fmt.Sprintf("RotationRule(%d)", int(r))
	}
	return rotationLabels[r]
}

// Valid reports whether r is a declared rule.
func (r RotationRule) Valid() bool {
	return r >= 0 && int(r) < len(rotationLabels)
}

// RelativeBone reports whether the rule needs a second bone.
func (r RotationRule) RelativeBone() bool {
	return r == NotSelectedToRight || r == SelectedToRight
}

func (r RotationRule) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("unknown rotation rule %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *RotationRule) UnmarshalText(text []byte) error {
	for i, label := range rotationLabels {
		if label == string(text) {
			*r = RotationRule(i)
			return nil
		}
	}
	return fmt.Errorf("unknown rotation rule %q", string(text))
}
