// Package report serializes comparisons as text, JSON, YAML or msgpack.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/example/go-promptdiff/internal/compare"
	"github.com/example/go-promptdiff/internal/render"
	"github.com/example/go-promptdiff/internal/textdiff"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

var ErrUnknownFormat = errors.New("unknown output format")

type Format string

const (
	Text    Format = "text"
	JSON    Format = "json"
	YAML    Format = "yaml"
	Msgpack Format = "msgpack"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return Text, nil
	case Text, JSON, YAML, Msgpack:
		return f, nil
	case "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("%w %q (want text|json|yaml|msgpack)", ErrUnknownFormat, s)
	}
}

// ContentType returns the HTTP media type for f.
func ContentType(f Format) string {
	switch f {
	case JSON:
		return "application/json"
	case YAML:
		return "application/yaml"
	case Msgpack:
		return "application/msgpack"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Op is the wire form of a textdiff.Op.
type Op struct {
	Kind string `json:"kind" yaml:"kind" msgpack:"kind"`
	A    int    `json:"a" yaml:"a" msgpack:"a"`
	B    int    `json:"b" yaml:"b" msgpack:"b"`
}

// Segment is the wire form of a compare.Segment.
type Segment struct {
	Kind string `json:"kind" yaml:"kind" msgpack:"kind"`
	Text string `json:"text" yaml:"text" msgpack:"text"`
}

// Document is the serialized form of one comparison.
type Document struct {
	Name       string         `json:"name,omitempty" yaml:"name,omitempty" msgpack:"name,omitempty"`
	A          []string       `json:"a" yaml:"a" msgpack:"a"`
	B          []string       `json:"b" yaml:"b" msgpack:"b"`
	Ops        []Op           `json:"ops" yaml:"ops" msgpack:"ops"`
	Segments   []Segment      `json:"segments" yaml:"segments" msgpack:"segments"`
	Stats      textdiff.Stats `json:"stats" yaml:"stats" msgpack:"stats"`
	Similarity float64        `json:"similarity" yaml:"similarity" msgpack:"similarity"`
	Identical  bool           `json:"identical" yaml:"identical" msgpack:"identical"`
}

func NewDocument(name string, c compare.Comparison) Document {
	doc := Document{
		Name:       name,
		A:          c.A.Texts(),
		B:          c.B.Texts(),
		Ops:        make([]Op, len(c.Ops)),
		Segments:   make([]Segment, len(c.Segments)),
		Stats:      c.Stats,
		Similarity: c.Similarity,
		Identical:  c.Identical(),
	}
	for i, op := range c.Ops {
		doc.Ops[i] = Op{Kind: op.Kind.String(), A: op.AIndex, B: op.BIndex}
	}
	for i, s := range c.Segments {
		doc.Segments[i] = Segment{Kind: s.Kind.String(), Text: s.Text}
	}
	return doc
}

// Write encodes a single document to w. The text format renders it with
// style, headed by its name when it has one.
func Write(w io.Writer, f Format, style render.Style, doc Document) error {
	return encode(w, f, style, doc, []Document{doc})
}

// WriteBatch encodes docs to w as a list.
func WriteBatch(w io.Writer, f Format, style render.Style, docs []Document) error {
	if docs == nil {
		docs = []Document{}
	}
	return encode(w, f, style, docs, docs)
}

func encode(w io.Writer, f Format, style render.Style, v any, docs []Document) error {
	switch f {
	case Text:
		return writeText(w, style, docs)
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case Msgpack:
		if err := msgpack.NewEncoder(w).Encode(v); err != nil {
			return fmt.Errorf("encode msgpack: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w %q", ErrUnknownFormat, f)
	}
}

func writeText(w io.Writer, style render.Style, docs []Document) error {
	for i, d := range docs {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if d.Name != "" {
			if _, err := fmt.Fprintf(w, "== %s ==\n", d.Name); err != nil {
				return err
			}
		}
		segs, err := d.segmentsForRender()
		if err != nil {
			return err
		}
		if err := render.Render(w, style, segs); err != nil {
			return err
		}
	}
	return nil
}

// segmentsForRender converts the wire segments back for the renderer, so a
// decoded Document renders the same as the one it was encoded from.
func (d Document) segmentsForRender() ([]compare.Segment, error) {
	segs := make([]compare.Segment, len(d.Segments))
	for i, s := range d.Segments {
		k, err := textdiff.ParseKind(s.Kind)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		segs[i] = compare.Segment{Kind: k, Text: s.Text}
	}
	return segs, nil
}
