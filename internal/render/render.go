// Package render writes colorless word diffs of a comparison.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/example/go-promptdiff/internal/compare"
	"github.com/example/go-promptdiff/internal/textdiff"
)

var ErrUnknownStyle = errors.New("unknown render style")

// Style selects the layout of rendered segments.
type Style string

const (
	// Plain prints the diff on one line, wrapping runs of inserted tokens in
	// {+ +} and runs of deleted tokens in [- -].
	Plain Style = "plain"
	// Porcelain prints one token per line prefixed with ' ', '+' or '-'.
	Porcelain Style = "porcelain"
)

func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case "", Plain:
		return Plain, nil
	case Porcelain:
		return Porcelain, nil
	default:
		return "", fmt.Errorf("%w %q (want plain|porcelain)", ErrUnknownStyle, s)
	}
}

// Render writes segs to w in the given style.
func Render(w io.Writer, style Style, segs []compare.Segment) error {
	switch style {
	case Plain:
		_, err := io.WriteString(w, PlainString(segs)+"\n")
		return err
	case Porcelain:
		return writePorcelain(w, segs)
	default:
		return fmt.Errorf("%w %q", ErrUnknownStyle, style)
	}
}

// PlainString renders segs on one line. Consecutive tokens of the same kind
// share one marker, and all tokens are separated by single spaces.
func PlainString(segs []compare.Segment) string {
	var sb strings.Builder
	for start := 0; start < len(segs); {
		end := start + 1
		for end < len(segs) && segs[end].Kind == segs[start].Kind {
			end++
		}

		if start > 0 {
			sb.WriteByte(' ')
		}
		open, closing := markers(segs[start].Kind)
		sb.WriteString(open)
		for i := start; i < end; i++ {
			if i > start {
				sb.WriteByte(' ')
			}
			sb.WriteString(segs[i].Text)
		}
		sb.WriteString(closing)

		start = end
	}
	return sb.String()
}

func markers(k textdiff.Kind) (string, string) {
	switch k {
	case textdiff.Inserted:
		return "{+", "+}"
	case textdiff.Deleted:
		return "[-", "-]"
	case textdiff.Same:
		return "", ""
	}
	return "", ""
}

func writePorcelain(w io.Writer, segs []compare.Segment) error {
	for _, s := range segs {
		var prefix byte
		switch s.Kind {
		case textdiff.Same:
			prefix = ' '
		case textdiff.Inserted:
			prefix = '+'
		case textdiff.Deleted:
			prefix = '-'
		default:
			return fmt.Errorf("render: unexpected segment kind %s", s.Kind)
		}
		if _, err := fmt.Fprintf(w, "%c%s\n", prefix, s.Text); err != nil {
			return err
		}
	}
	return nil
}
