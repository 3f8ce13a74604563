// Package plan maps an event-order payload onto an ordered sequence of
// slides and picks the navigation axes for the generated site. It is pure
// in-memory computation: no I/O, no model calls.
package plan

// MaxSlides is the exclusive slide-count cap: a valid plan holds fewer than
// MaxSlides slides.
const MaxSlides = 10

// Axis is a navigation direction.
type Axis string

const (
	AxisVertical   Axis = "vertical"
	AxisHorizontal Axis = "horizontal"
	AxisLinear     Axis = "linear"
)

// Valid reports whether a is one of the three known axes.
func (a Axis) Valid() bool {
	switch a {
	case AxisVertical, AxisHorizontal, AxisLinear:
		return true
	}
	return false
}

// secondaryFor is the allowed primary → secondary pairing table.
var secondaryFor = map[Axis][]Axis{
	AxisVertical:   {AxisHorizontal, AxisLinear},
	AxisHorizontal: {AxisVertical, AxisLinear},
	AxisLinear:     {AxisHorizontal, AxisVertical},
}

// AllowedPair reports whether secondary is a permitted companion for primary.
func AllowedPair(primary, secondary Axis) bool {
	for _, s := range secondaryFor[primary] {
		if s == secondary {
			return true
		}
	}
	return false
}

// Unit is one assignable piece of content: a dataset object, or one element
// of a dataset list (keyed "name[i]").
type Unit struct {
	// Key is the dataset key, with an index suffix for list elements.
	Key string

	// Fullscreen marks a unit that must be the sole occupant of its slide.
	Fullscreen bool

	// Sequence is the optional ordering hint. Nil means unconstrained.
	Sequence *int
}

// HasSequence reports whether the unit carries an ordering hint.
func (u Unit) HasSequence() bool { return u.Sequence != nil }

// Slide is one screen of the generated site.
type Slide struct {
	SlideID  string   `json:"slide_id"`
	Datasets []string `json:"datasets"`
}

// Plan is the output of the partitioning step.
type Plan struct {
	SlideMappings []Slide `json:"slide_mappings"`
	PrimaryAxis   Axis    `json:"primary_axis,omitempty"`
	SecondaryAxis Axis    `json:"secondary_axis,omitempty"`
	Success       bool    `json:"success"`
	Error         *string `json:"error"`
}

// failed builds an unsuccessful Plan with no slides.
func failed(msg string) *Plan {
	return &Plan{Success: false, Error: &msg}
}
