package textdiff

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestResultValidate_RejectsBrokenScripts(t *testing.T) {
	a := Tokenize("a b")
	b := Tokenize("a c")

	tests := []struct {
		name string
		ops  Result
	}{
		{"skips a token of A", Result{SameOp(0, 0), InsertOp(1)}},
		{"pairs unequal tokens", Result{SameOp(0, 0), SameOp(1, 1)}},
		{"out of order", Result{SameOp(0, 0), InsertOp(1), DeleteOp(0)}},
		{"index past end", Result{SameOp(0, 0), DeleteOp(1), InsertOp(1), InsertOp(2)}},
		{"insert carries A index", Result{SameOp(0, 0), DeleteOp(1), {Kind: Inserted, AIndex: 1, BIndex: 1}}},
		{"unknown kind", Result{SameOp(0, 0), {Kind: Kind(9), AIndex: 1, BIndex: 1}}},
		{"empty for non-empty inputs", Result{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ops.Validate(a, b)
			if !errors.Is(err, ErrInvalidAlignment) {
				t.Fatalf("Validate() error = %v; want ErrInvalidAlignment", err)
			}
		})
	}
}

func TestResultValidate_AcceptsAlign(t *testing.T) {
	a := Tokenize("a b")
	b := Tokenize("a c")

	if err := Align(a, b).Validate(a, b); err != nil {
		t.Fatalf("Validate(Align) = %v; want nil", err)
	}
}

func TestResultStatsAndIdentical(t *testing.T) {
	r := Align(Tokenize("one two three four"), Tokenize("one 2 three four five"))

	got := r.Stats()
	want := Stats{Same: 3, Inserted: 2, Deleted: 1}
	if got != want {
		t.Errorf("Stats() = %+v; want %+v", got, want)
	}

	if got.Edits() != 3 {
		t.Errorf("Edits() = %d; want 3", got.Edits())
	}

	if r.Identical() {
		t.Error("Identical() = true; want false")
	}

	if !Align(Tokenize("x y"), Tokenize("x   y")).Identical() {
		t.Error("Identical() = false for whitespace-only difference")
	}

	if !(Result{}).Identical() {
		t.Error("empty result should be identical")
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		s    Stats
		m, n int
		want float64
	}{
		{"both empty", Stats{}, 0, 0, 1},
		{"disjoint", Stats{Inserted: 2, Deleted: 3}, 3, 2, 0},
		{"identical", Stats{Same: 4}, 4, 4, 1},
		{"half", Stats{Same: 2, Inserted: 2, Deleted: 2}, 4, 4, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.s, tt.m, tt.n)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Similarity = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestKind_TextRoundTrip(t *testing.T) {
	for _, k := range []Kind{Same, Inserted, Deleted} {
		b, err := json.Marshal(k)
		if err != nil {
			t.Fatalf("Marshal(%v): %v", k, err)
		}

		var got Kind
		if err := json.Unmarshal(b, &got); err != nil {
			t.Fatalf("Unmarshal(%s): %v", b, err)
		}

		if got != k {
			t.Errorf("round trip %v -> %s -> %v", k, b, got)
		}
	}
}

func TestKind_OpJSON(t *testing.T) {
	b, err := json.Marshal(InsertOp(3))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	if string(b) != `{"kind":"insert","a":-1,"b":3}` {
		t.Errorf("Marshal(InsertOp(3)) = %s", b)
	}
}

func TestKind_OpYAML(t *testing.T) {
	b, err := yaml.Marshal(DeleteOp(2))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	if string(b) != "kind: delete\na: 2\nb: -1\n" {
		t.Errorf("Marshal(DeleteOp(2)) = %q", b)
	}

	var got Op
	if err := yaml.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got != DeleteOp(2) {
		t.Errorf("round trip = %+v; want %+v", got, DeleteOp(2))
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"same", Same, false},
		{"INSERT", Inserted, false},
		{" add ", Inserted, false},
		{"del", Deleted, false},
		{"deleted", Deleted, false},
		{"replace", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownKind) {
				t.Errorf("ParseKind(%q) error = %v; want ErrUnknownKind", tt.in, err)
			}
			continue
		}

		if err != nil || got != tt.want {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}

	if _, err := Kind(7).MarshalText(); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("MarshalText(7) error = %v; want ErrUnknownKind", err)
	}
}
