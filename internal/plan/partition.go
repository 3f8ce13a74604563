package plan

import (
	"fmt"
	"math/rand"
	"slices"
	"sort"
)

// Partitioner assigns payload units to slides and picks the navigation axes.
// Runs over the same payload differ (grouping, slide count, axes) but every
// run satisfies the coverage, capacity, fullscreen, ordering, and axis
// pairing rules. A nil-error result is always a validated plan; expected
// input problems come back as an unsuccessful Plan, not a Go error.
type Partitioner struct {
	rng *rand.Rand
}

// NewPartitioner builds a Partitioner driven by rng. Callers that need
// reproducible plans pass a seeded source.
func NewPartitioner(rng *rand.Rand) *Partitioner {
	return &Partitioner{rng: rng}
}

// Plan decodes payload and partitions its units.
func (p *Partitioner) Plan(payload []byte) (*Plan, error) {
	units, err := DecodeUnits(payload)
	if err != nil {
		return failed(fmt.Sprintf("malformed input: %v", err)), nil
	}
	return p.PlanUnits(units)
}

// PlanUnits partitions already-decoded units. The returned plan has been
// checked against the planning invariants; a violation is an internal defect
// and surfaces as a non-nil error.
func (p *Partitioner) PlanUnits(units []Unit) (*Plan, error) {
	plan := p.build(units)
	if !plan.Success {
		return plan, nil
	}
	if report := Validate(plan, units); !report.OK() {
		return nil, fmt.Errorf("plan: generated plan violates invariants: %v", report)
	}
	return plan, nil
}

func (p *Partitioner) build(units []Unit) *Plan {
	const maxUsable = MaxSlides - 1

	order := p.randomMonotoneOrder(units)

	var fullscreen, content []Unit
	for _, u := range order {
		if u.Fullscreen {
			fullscreen = append(fullscreen, u)
		} else {
			content = append(content, u)
		}
	}

	if len(fullscreen) > maxUsable {
		return failed(fmt.Sprintf(
			"capacity exceeded: %d fullscreen datasets need %d slides, at most %d fit",
			len(fullscreen), len(fullscreen), maxUsable))
	}
	budget := maxUsable - len(fullscreen)
	if len(content) > 0 && budget < 1 {
		return failed(fmt.Sprintf(
			"capacity exceeded: %d fullscreen datasets leave no slide for the remaining %d",
			len(fullscreen), len(content)))
	}

	var chunks [][]Unit
	if len(content) > 0 {
		segments := splitAtBarriers(content, sequenceValues(fullscreen))
		if len(segments) > budget {
			return failed(fmt.Sprintf(
				"capacity exceeded: content requires at least %d slides but only %d remain",
				len(segments), budget))
		}
		chunks = p.chunkSegments(segments, budget)
	}

	slides := p.orderSlides(fullscreen, chunks)

	primary := p.pickPrimary()
	secondary := p.pickSecondary(primary)

	return &Plan{
		SlideMappings: slides,
		PrimaryAxis:   primary,
		SecondaryAxis: secondary,
		Success:       true,
	}
}

// randomMonotoneOrder shuffles units, then rearranges the sequenced ones so
// their hints are non-decreasing while they keep the slots the shuffle gave
// them. Ties between equal hints and the placement of unsequenced units stay
// random.
func (p *Partitioner) randomMonotoneOrder(units []Unit) []Unit {
	order := slices.Clone(units)
	p.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	var slots []int
	var sequenced []Unit
	for i, u := range order {
		if u.HasSequence() {
			slots = append(slots, i)
			sequenced = append(sequenced, u)
		}
	}
	sort.SliceStable(sequenced, func(i, j int) bool {
		return *sequenced[i].Sequence < *sequenced[j].Sequence
	})
	for j, i := range slots {
		order[i] = sequenced[j]
	}
	return order
}

// sequenceValues collects the sequence hints present on units.
func sequenceValues(units []Unit) []int {
	var vals []int
	for _, u := range units {
		if u.HasSequence() {
			vals = append(vals, *u.Sequence)
		}
	}
	sort.Ints(vals)
	return vals
}

// splitAtBarriers cuts the monotone content run wherever a slide spanning
// the cut would strictly enclose a fullscreen unit's sequence hint. Two
// content units with hints a and c cannot share a slide when a fullscreen
// unit carries b with a < b < c: that slide could neither precede nor follow
// the fullscreen one. The greedy scan yields the minimum number of segments.
func splitAtBarriers(content []Unit, barriers []int) [][]Unit {
	var segments [][]Unit
	start := 0
	var lo *int
	for i, u := range content {
		if !u.HasSequence() {
			continue
		}
		if lo != nil && strictlyBetween(barriers, *lo, *u.Sequence) {
			segments = append(segments, content[start:i])
			start = i
			lo = nil
		}
		if lo == nil {
			lo = u.Sequence
		}
	}
	segments = append(segments, content[start:])
	return segments
}

// strictlyBetween reports whether vals (sorted) holds some v with lo < v < hi.
func strictlyBetween(vals []int, lo, hi int) bool {
	i := sort.SearchInts(vals, lo+1)
	return i < len(vals) && vals[i] < hi
}

// chunkSegments splits the forced segments into a random total of chunks
// between the forced minimum and the slide budget. Extra cuts land on random
// segments; within a segment the cut positions are even, since any
// sub-interval of a legal segment is legal.
func (p *Partitioner) chunkSegments(segments [][]Unit, budget int) [][]Unit {
	total := 0
	for _, s := range segments {
		total += len(s)
	}
	kMin := len(segments)
	kMax := min(total, budget)
	k := kMin + p.rng.Intn(kMax-kMin+1)

	perSegment := make([]int, len(segments))
	for i := range perSegment {
		perSegment[i] = 1
	}
	for extra := k - kMin; extra > 0; {
		i := p.rng.Intn(len(segments))
		if perSegment[i] < len(segments[i]) {
			perSegment[i]++
			extra--
		}
	}

	var chunks [][]Unit
	for i, seg := range segments {
		chunks = append(chunks, splitEven(seg, perSegment[i])...)
	}
	return chunks
}

// splitEven cuts seg into n contiguous pieces of near-equal size.
func splitEven(seg []Unit, n int) [][]Unit {
	out := make([][]Unit, 0, n)
	base, rem := len(seg)/n, len(seg)%n
	start := 0
	for i := 0; i < n; i++ {
		size := base
		if i < rem {
			size++
		}
		out = append(out, seg[start:start+size])
		start += size
	}
	return out
}

// orderSlides produces the final slide sequence: sequence-constrained slides
// sorted by their hint envelope, unconstrained ones spliced in at random
// positions, IDs assigned last.
func (p *Partitioner) orderSlides(fullscreen []Unit, chunks [][]Unit) []Slide {
	type protoSlide struct {
		keys   []string
		lo, hi int
		bound  bool
	}

	var constrained, free []protoSlide
	add := func(group []Unit) {
		ps := protoSlide{}
		for _, u := range group {
			ps.keys = append(ps.keys, u.Key)
			if u.HasSequence() {
				if !ps.bound {
					ps.lo, ps.hi, ps.bound = *u.Sequence, *u.Sequence, true
				} else {
					ps.lo = min(ps.lo, *u.Sequence)
					ps.hi = max(ps.hi, *u.Sequence)
				}
			}
		}
		if ps.bound {
			constrained = append(constrained, ps)
		} else {
			free = append(free, ps)
		}
	}
	for _, u := range fullscreen {
		add([]Unit{u})
	}
	for _, c := range chunks {
		add(c)
	}

	sort.SliceStable(constrained, func(i, j int) bool {
		if constrained[i].lo != constrained[j].lo {
			return constrained[i].lo < constrained[j].lo
		}
		return constrained[i].hi < constrained[j].hi
	})

	ordered := constrained
	for _, ps := range free {
		at := p.rng.Intn(len(ordered) + 1)
		ordered = slices.Insert(ordered, at, ps)
	}

	slides := make([]Slide, 0, len(ordered))
	for i, ps := range ordered {
		slides = append(slides, Slide{
			SlideID:  fmt.Sprintf("slide%d", i+1),
			Datasets: ps.keys,
		})
	}
	return slides
}

func (p *Partitioner) pickPrimary() Axis {
	axes := []Axis{AxisVertical, AxisHorizontal, AxisLinear}
	return axes[p.rng.Intn(len(axes))]
}

func (p *Partitioner) pickSecondary(primary Axis) Axis {
	options := secondaryFor[primary]
	return options[p.rng.Intn(len(options))]
}
