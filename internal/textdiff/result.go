package textdiff

import (
	"errors"
	"fmt"
)

// ErrInvalidAlignment reports a Result that does not reconstruct its inputs.
var ErrInvalidAlignment = errors.New("invalid alignment")

// Result is an alignment in forward order.
type Result []Op

// Stats counts the ops of each kind in a Result.
type Stats struct {
	Same     int `json:"same" yaml:"same" msgpack:"same"`
	Inserted int `json:"inserted" yaml:"inserted" msgpack:"inserted"`
	Deleted  int `json:"deleted" yaml:"deleted" msgpack:"deleted"`
}

// Edits is the number of inserted plus deleted tokens.
func (s Stats) Edits() int { return s.Inserted + s.Deleted }

func (r Result) Stats() Stats {
	var s Stats
	for _, op := range r {
		switch op.Kind {
		case Same:
			s.Same++
		case Inserted:
			s.Inserted++
		case Deleted:
			s.Deleted++
		}
	}
	return s
}

// Identical reports whether every op is Same.
func (r Result) Identical() bool {
	for _, op := range r {
		if op.Kind != Same {
			return false
		}
	}
	return true
}

// ProjectA rebuilds A from the Same and Deleted ops.
func (r Result) ProjectA(a Tokens) Tokens {
	out := make(Tokens, 0, len(a))
	for _, op := range r {
		switch op.Kind {
		case Same, Deleted:
			out = append(out, a[op.AIndex])
		case Inserted:
		}
	}
	return out
}

// ProjectB rebuilds B from the Same and Inserted ops.
func (r Result) ProjectB(b Tokens) Tokens {
	out := make(Tokens, 0, len(b))
	for _, op := range r {
		switch op.Kind {
		case Same, Inserted:
			out = append(out, b[op.BIndex])
		case Deleted:
		}
	}
	return out
}

// Validate checks that r walks a and b exactly once each, in order, and that
// every Same op pairs equal tokens.
func (r Result) Validate(a, b Tokens) error {
	nextA, nextB := 0, 0
	for pos, op := range r {
		switch op.Kind {
		case Same:
			if op.AIndex != nextA || op.BIndex != nextB {
				return fmt.Errorf("%w: op %d %s, want same(%d,%d)", ErrInvalidAlignment, pos, op, nextA, nextB)
			}
			if nextA >= len(a) || nextB >= len(b) {
				return fmt.Errorf("%w: op %d %s out of range", ErrInvalidAlignment, pos, op)
			}
			if a[nextA].Text != b[nextB].Text {
				return fmt.Errorf("%w: op %d pairs %q with %q", ErrInvalidAlignment, pos, a[nextA].Text, b[nextB].Text)
			}
			nextA++
			nextB++
		case Inserted:
			if op.AIndex != -1 || op.BIndex != nextB || nextB >= len(b) {
				return fmt.Errorf("%w: op %d %s, want insert(%d)", ErrInvalidAlignment, pos, op, nextB)
			}
			nextB++
		case Deleted:
			if op.BIndex != -1 || op.AIndex != nextA || nextA >= len(a) {
				return fmt.Errorf("%w: op %d %s, want delete(%d)", ErrInvalidAlignment, pos, op, nextA)
			}
			nextA++
		default:
			return fmt.Errorf("%w: op %d has %s", ErrInvalidAlignment, pos, op.Kind)
		}
	}
	if nextA != len(a) || nextB != len(b) {
		return fmt.Errorf("%w: consumed %d/%d of A and %d/%d of B", ErrInvalidAlignment, nextA, len(a), nextB, len(b))
	}
	return nil
}

// Similarity is 2*same/(m+n), the share of tokens kept on both sides.
// Two empty sequences are fully similar.
func Similarity(s Stats, m, n int) float64 {
	if m+n == 0 {
		return 1
	}
	return float64(2*s.Same) / float64(m+n)
}
