// Package compare turns two raw texts into a rendered-ready comparison. It
// owns the input ceiling that keeps the quadratic alignment bounded, and fans
// batches of text pairs out over a bounded worker pool.
package compare

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/go-promptdiff/internal/textdiff"
	"golang.org/x/sync/errgroup"
)

// ErrTooManyTokens is wrapped by LimitError.
var ErrTooManyTokens = errors.New("too many tokens")

// LimitError reports which side of a comparison exceeded the token ceiling.
type LimitError struct {
	Side   string
	Tokens int
	Max    int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("text %s has %d tokens, maximum is %d", e.Side, e.Tokens, e.Max)
}

func (e *LimitError) Unwrap() error { return ErrTooManyTokens }

// Options configures a Service.
type Options struct {
	// MaxTokens caps the token count of each side; <= 0 disables the cap.
	MaxTokens int
	// Workers bounds CompareBatch concurrency; <= 0 means one worker.
	Workers int
	// Verify re-checks every alignment against its inputs.
	Verify bool
	Logger *slog.Logger
}

// Pair is one row of a batch comparison.
type Pair struct {
	Name string `json:"name" yaml:"name" validate:"max=200"`
	A    string `json:"a" yaml:"a"`
	B    string `json:"b" yaml:"b"`
}

// Segment is an alignment op projected back onto its token text.
type Segment struct {
	Kind textdiff.Kind
	Text string
}

// Comparison is the outcome of comparing one pair of texts.
type Comparison struct {
	A          textdiff.Tokens
	B          textdiff.Tokens
	Ops        textdiff.Result
	Segments   []Segment
	Stats      textdiff.Stats
	Similarity float64
}

// Identical reports whether both texts have the same tokens.
func (c Comparison) Identical() bool { return c.Ops.Identical() }

type Service struct {
	opts Options
	log  *slog.Logger
}

func New(opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Service{opts: opts, log: log}
}

// Compare tokenizes a and b, enforces the token ceiling and aligns them.
func (s *Service) Compare(a, b string) (Comparison, error) {
	start := time.Now()

	ta := textdiff.Tokenize(a)
	if err := s.checkLimit("A", len(ta)); err != nil {
		return Comparison{}, err
	}
	tb := textdiff.Tokenize(b)
	if err := s.checkLimit("B", len(tb)); err != nil {
		return Comparison{}, err
	}

	ops := textdiff.Align(ta, tb)
	if s.opts.Verify {
		if err := ops.Validate(ta, tb); err != nil {
			return Comparison{}, fmt.Errorf("verify alignment: %w", err)
		}
	}

	stats := ops.Stats()
	c := Comparison{
		A:          ta,
		B:          tb,
		Ops:        ops,
		Segments:   Segments(ta, tb, ops),
		Stats:      stats,
		Similarity: textdiff.Similarity(stats, len(ta), len(tb)),
	}

	s.log.Debug("texts compared",
		slog.Int("a_tokens", len(ta)),
		slog.Int("b_tokens", len(tb)),
		slog.Int("same", stats.Same),
		slog.Int("inserted", stats.Inserted),
		slog.Int("deleted", stats.Deleted),
		slog.Int64("duration_us", time.Since(start).Microseconds()),
	)

	return c, nil
}

// CompareBatch compares every pair with at most Options.Workers running at
// once. Results keep the order of pairs. The first failure cancels the rest
// and is returned with the index and name of its pair.
func (s *Service) CompareBatch(ctx context.Context, pairs []Pair) ([]Comparison, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]Comparison, len(pairs))
	if len(pairs) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(s.opts.Workers, len(pairs)))

	for i, p := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := s.Compare(p.A, p.B)
			if err != nil {
				return fmt.Errorf("pair %d (%s): %w", i, pairLabel(p), err)
			}
			results[i] = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.log.Debug("batch compared", slog.Int("pairs", len(pairs)), slog.Int("workers", s.opts.Workers))

	return results, nil
}

func (s *Service) checkLimit(side string, n int) error {
	if s.opts.MaxTokens > 0 && n > s.opts.MaxTokens {
		return &LimitError{Side: side, Tokens: n, Max: s.opts.MaxTokens}
	}
	return nil
}

// Segments projects each op of r onto the token it keeps, inserts or deletes.
func Segments(a, b textdiff.Tokens, r textdiff.Result) []Segment {
	segs := make([]Segment, len(r))
	for i, op := range r {
		switch op.Kind {
		case textdiff.Same, textdiff.Deleted:
			segs[i] = Segment{Kind: op.Kind, Text: a[op.AIndex].Text}
		case textdiff.Inserted:
			segs[i] = Segment{Kind: op.Kind, Text: b[op.BIndex].Text}
		}
	}
	return segs
}

func pairLabel(p Pair) string {
	if p.Name == "" {
		return "unnamed"
	}
	return p.Name
}
