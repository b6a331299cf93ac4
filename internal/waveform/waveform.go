package waveform

// Switching states. A relay channel is either energised (On) or released
// (Off); the wire protocol carries these as single bytes.
const (
	Off = 0
	On  = 1
)

// kind discriminates the two waveform variants.
type kind int

const (
	kindPulse kind = iota + 1
	kindSequence
)

// Waveform is a node in a channel's timing tree: either a single pulse or a
// repeated sequence of child waveforms.
//
// The zero value is not a valid waveform; use NewPulse or NewSequence.
// Waveforms are immutable after construction and safe to share between
// goroutines.
type Waveform struct {
	kind kind

	// Pulse fields.
	length int
	state  int

	// Sequence fields. children is owned by this node and never mutated.
	children []Waveform
	cycle    int
}

// Step is one switching instruction produced by Expand: set the channel to
// State at absolute offset Offset (in engine time units).
type Step struct {
	Offset int
	State  int
}

// NewPulse constructs an atomic waveform holding state for length time
// units.
//
// Returns a *ValidationError (wrapping ErrInvalid) when length is not
// positive or state is not 0 or 1.
func NewPulse(length, state int) (Waveform, error) {
	if length <= 0 {
		return Waveform{}, invalidf("length", length, "must be a positive integer")
	}
	if state != Off && state != On {
		return Waveform{}, invalidf("state", state, "must be 0 or 1")
	}
	return Waveform{kind: kindPulse, length: length, state: state}, nil
}

// NewSequence constructs a combined waveform repeating the children, in
// order, cycle times.
//
// The children slice is copied so later mutation of the caller's slice
// cannot reach into the constructed tree.
//
// Returns a *ValidationError (wrapping ErrInvalid) when cycle < 1, the
// children list is empty, or any child is the zero Waveform.
func NewSequence(children []Waveform, cycle int) (Waveform, error) {
	if cycle < 1 {
		return Waveform{}, invalidf("cycle", cycle, "must be >= 1")
	}
	if len(children) == 0 {
		return Waveform{}, invalidf("sub_signals", children, "must not be empty")
	}
	owned := make([]Waveform, len(children))
	for i, c := range children {
		if c.kind == 0 {
			return Waveform{}, invalidf("sub_signals", i, "contains an uninitialised waveform")
		}
		owned[i] = c
	}
	return Waveform{kind: kindSequence, children: owned, cycle: cycle}, nil
}

// IsPulse reports whether w is an atomic pulse.
func (w Waveform) IsPulse() bool {
	return w.kind == kindPulse
}

// IsZero reports whether w is the uninitialised zero value rather than a
// constructed waveform. Decoding a document where a signal field is absent
// leaves the zero value, so callers embedding Waveform must check this.
func (w Waveform) IsZero() bool {
	return w.kind == 0
}

// Span returns the total number of time units the waveform occupies: the
// pulse length, or cycle times the sum of the children's spans.
func (w Waveform) Span() int {
	if w.kind == kindPulse {
		return w.length
	}
	total := 0
	for _, c := range w.children {
		total += c.Span()
	}
	return total * w.cycle
}

// StepCount returns the number of steps Expand will produce without
// building them: 1 for a pulse, cycle * sum(child counts) for a sequence.
func (w Waveform) StepCount() int {
	if w.kind == kindPulse {
		return 1
	}
	total := 0
	for _, c := range w.children {
		total += c.StepCount()
	}
	return total * w.cycle
}

// Expand flattens the waveform into absolute switching steps.
//
// A pulse starting at offset t produces the single step (t+length, state):
// the channel is switched to state when the pulse's hold period ends. A
// sequence expands each child in order for every cycle, threading the
// running offset forward so each child starts where the previous one ended.
//
// The returned steps are ordered by construction; offsets are strictly
// increasing within one channel because every pulse has positive length.
func (w Waveform) Expand(start int) []Step {
	steps := make([]Step, 0, w.StepCount())
	w.appendSteps(start, &steps)
	return steps
}

// appendSteps walks the tree accumulating steps and returns the offset at
// which the waveform ends.
func (w Waveform) appendSteps(start int, steps *[]Step) int {
	if w.kind == kindPulse {
		end := start + w.length
		*steps = append(*steps, Step{Offset: end, State: w.state})
		return end
	}
	offset := start
	for cycle := 0; cycle < w.cycle; cycle++ {
		for _, c := range w.children {
			offset = c.appendSteps(offset, steps)
		}
	}
	return offset
}
