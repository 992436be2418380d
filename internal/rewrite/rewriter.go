package rewrite

// Rewriter replaces every "https://" in a byte stream with "http://", even
// when the sequence is split across calls. A Rewriter belongs to a single
// body; it is not safe for concurrent use and is not meant to be reused.
type Rewriter struct {
	state   State
	pending [maxPending]byte
	output  []byte

	replacements int
}

// New returns a Rewriter in the initial state.
func New() *Rewriter {
	return &Rewriter{
		output: make([]byte, 0, 1024),
	}
}

// Consume ingests one byte.
func (r *Rewriter) Consume(c byte) {
	next, op := Transition(r.state, c)
	switch op {
	case OpAdvance:
		r.pending[r.state] = c
	case OpRestart:
		r.flushPending()
		r.pending[0] = c
	case OpReject:
		r.flushPending()
		r.output = append(r.output, c)
	case OpMatch:
		r.output = append(r.output, plaintextPrefix...)
		r.replacements++
	}
	r.state = next
}

// Write consumes every byte of p. It never fails.
func (r *Rewriter) Write(p []byte) (int, error) {
	r.output = growFor(r.output, len(p))
	for _, c := range p {
		r.Consume(c)
	}
	return len(p), nil
}

// Drain removes and returns everything confirmed so far. Bytes of a match
// still being evaluated stay pending.
func (r *Rewriter) Drain() []byte {
	out := r.output
	r.output = nil
	if out == nil {
		return []byte{}
	}
	return out
}

// Flush moves the pending bytes to the output unchanged and resets the
// matcher. Call it once the stream has ended so a trailing partial match
// such as "http" is not lost.
func (r *Rewriter) Flush() {
	r.flushPending()
	r.state = StateInitial
}

// Pending returns a copy of the bytes held as a possible match prefix.
func (r *Rewriter) Pending() []byte {
	return append([]byte(nil), r.pending[:r.state]...)
}

func (r *Rewriter) State() State {
	return r.state
}

// Replacements reports how many "https://" sequences were rewritten.
func (r *Rewriter) Replacements() int {
	return r.replacements
}

func (r *Rewriter) flushPending() {
	r.output = append(r.output, r.pending[:r.state]...)
}

// Bytes rewrites a complete body in one go.
func Bytes(p []byte) ([]byte, int) {
	r := &Rewriter{output: make([]byte, 0, len(p))}
	_, _ = r.Write(p)
	r.Flush()
	return r.Drain(), r.Replacements()
}

func growFor(b []byte, n int) []byte {
	if cap(b)-len(b) >= n {
		return b
	}
	grown := make([]byte, len(b), len(b)+n)
	copy(grown, b)
	return grown
}
