package plan

import (
	"fmt"
	"sort"
	"strings"
)

// Invariant names carried on violations.
const (
	InvariantCoverage   = "coverage"
	InvariantCapacity   = "capacity"
	InvariantFullscreen = "fullscreen"
	InvariantSequence   = "sequence"
	InvariantAxes       = "axes"
)

// Violation is one broken planning rule.
type Violation struct {
	Invariant string
	Keys      []string
	Message   string
}

func (v Violation) String() string {
	if len(v.Keys) == 0 {
		return fmt.Sprintf("%s: %s", v.Invariant, v.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", v.Invariant, strings.Join(v.Keys, ", "), v.Message)
}

// Report is the outcome of validating a plan.
type Report struct {
	Violations []Violation
}

// OK reports whether the plan passed every check.
func (r Report) OK() bool { return len(r.Violations) == 0 }

func (r Report) String() string {
	if r.OK() {
		return "ok"
	}
	msgs := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		msgs[i] = v.String()
	}
	return strings.Join(msgs, "; ")
}

func (r *Report) add(invariant, message string, keys ...string) {
	r.Violations = append(r.Violations, Violation{Invariant: invariant, Keys: keys, Message: message})
}

// Validate checks p against the planning invariants for the given units.
// It is pure and deterministic; the partitioner runs it on every plan it
// emits, and tests run it standalone.
func Validate(p *Plan, units []Unit) Report {
	var r Report

	byKey := make(map[string]Unit, len(units))
	for _, u := range units {
		byKey[u.Key] = u
	}

	// Coverage: every unit on exactly one slide, no stray keys.
	seen := make(map[string]int)
	for _, s := range p.SlideMappings {
		for _, key := range s.Datasets {
			seen[key]++
			if _, known := byKey[key]; !known {
				r.add(InvariantCoverage, "slide references an unknown dataset", key)
			}
		}
	}
	for _, u := range units {
		switch n := seen[u.Key]; {
		case n == 0:
			r.add(InvariantCoverage, "dataset assigned to no slide", u.Key)
		case n > 1:
			r.add(InvariantCoverage, fmt.Sprintf("dataset assigned to %d slides", n), u.Key)
		}
	}

	// Capacity.
	if len(p.SlideMappings) >= MaxSlides {
		r.add(InvariantCapacity, fmt.Sprintf("%d slides, limit is fewer than %d",
			len(p.SlideMappings), MaxSlides))
	}

	// Fullscreen isolation.
	for _, s := range p.SlideMappings {
		fs := 0
		for _, key := range s.Datasets {
			if byKey[key].Fullscreen {
				fs++
			}
		}
		if fs > 0 && len(s.Datasets) > 1 {
			r.add(InvariantFullscreen,
				fmt.Sprintf("slide %s mixes a fullscreen dataset with %d others",
					s.SlideID, len(s.Datasets)-1), s.Datasets...)
		}
	}

	// Sequence ordering: for hints a < b, a's slide may not come after b's.
	type placed struct {
		key   string
		seq   int
		slide int
	}
	var hinted []placed
	for i, s := range p.SlideMappings {
		for _, key := range s.Datasets {
			if u, ok := byKey[key]; ok && u.HasSequence() {
				hinted = append(hinted, placed{key: key, seq: *u.Sequence, slide: i})
			}
		}
	}
	sort.SliceStable(hinted, func(i, j int) bool { return hinted[i].seq < hinted[j].seq })
	maxSlideBefore := -1
	for i := 0; i < len(hinted); {
		j := i
		groupMin := len(p.SlideMappings)
		for ; j < len(hinted) && hinted[j].seq == hinted[i].seq; j++ {
			groupMin = min(groupMin, hinted[j].slide)
		}
		if groupMin < maxSlideBefore {
			keys := make([]string, 0, j-i)
			for k := i; k < j; k++ {
				keys = append(keys, hinted[k].key)
			}
			r.add(InvariantSequence,
				fmt.Sprintf("sequence %d placed on an earlier slide than a lower sequence",
					hinted[i].seq), keys...)
		}
		for k := i; k < j; k++ {
			maxSlideBefore = max(maxSlideBefore, hinted[k].slide)
		}
		i = j
	}

	// Axis pairing.
	if !p.PrimaryAxis.Valid() {
		r.add(InvariantAxes, fmt.Sprintf("unknown primary axis %q", p.PrimaryAxis))
	}
	if !p.SecondaryAxis.Valid() {
		r.add(InvariantAxes, fmt.Sprintf("unknown secondary axis %q", p.SecondaryAxis))
	}
	if p.PrimaryAxis.Valid() && p.SecondaryAxis.Valid() &&
		!AllowedPair(p.PrimaryAxis, p.SecondaryAxis) {
		r.add(InvariantAxes, fmt.Sprintf("secondary axis %q not allowed with primary %q",
			p.SecondaryAxis, p.PrimaryAxis))
	}

	return r
}
