package analysis

// Result is one match outcome inside a form string.
type Result byte

const (
	Win  Result = 'W'
	Draw Result = 'D'
	Loss Result = 'L'
)

// Points returns league points for the result and whether it is recognised.
func (r Result) Points() (int, bool) {
	switch r {
	case Win:
		return 3, true
	case Draw:
		return 1, true
	case Loss:
		return 0, true
	}
	return 0, false
}

// Form is a sequence of recent results, oldest first, e.g. "WDLWD".
type Form string

// Results returns the recognised results in order. Unknown characters are dropped.
func (f Form) Results() []Result {
	out := make([]Result, 0, len(f))
	for i := 0; i < len(f); i++ {
		r := Result(f[i])
		if _, ok := r.Points(); ok {
			out = append(out, r)
		}
	}
	return out
}

// Last returns the form restricted to the n most recent recognised results.
func (f Form) Last(n int) Form {
	results := f.Results()
	if n > 0 && len(results) > n {
		results = results[len(results)-n:]
	}
	b := make([]byte, len(results))
	for i, r := range results {
		b[i] = byte(r)
	}
	return Form(b)
}
