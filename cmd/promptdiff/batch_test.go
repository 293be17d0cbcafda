package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/example/go-promptdiff/internal/report"
)

func TestParseBatch(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantNames []string
		wantErr   string
	}{
		{
			name:      "yaml list",
			input:     "- name: first\n  a: a b\n  b: a c\n- a: x\n  b: y\n",
			wantNames: []string{"first", "#2"},
		},
		{
			name:      "yaml mapping",
			input:     "pairs:\n  - {name: only, a: hello, b: hello}\n",
			wantNames: []string{"only"},
		},
		{
			name:      "json list",
			input:     `[{"name":"j","a":"1 2","b":"2 1"}]`,
			wantNames: []string{"j"},
		},
		{
			name:    "empty file",
			input:   "",
			wantErr: "invalid batch file",
		},
		{
			name:    "not a list",
			input:   "just text",
			wantErr: "parse batch file",
		},
		{
			name:    "overlong name",
			input:   "- name: " + strings.Repeat("n", 201) + "\n  a: x\n  b: y\n",
			wantErr: "invalid batch file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs, err := parseBatch([]byte(tt.input))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("parseBatch error = %v; want %q", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("parseBatch error = %v", err)
			}

			if len(pairs) != len(tt.wantNames) {
				t.Fatalf("got %d pairs; want %d", len(pairs), len(tt.wantNames))
			}

			for i, name := range tt.wantNames {
				if pairs[i].Name != name {
					t.Errorf("pairs[%d].Name = %q; want %q", i, pairs[i].Name, name)
				}
			}
		})
	}
}

func TestBatchCmd_Text(t *testing.T) {
	path := writeFile(t, "pairs.yaml", "- name: row-1\n  a: a b c\n  b: a x c\n- name: row-2\n  a: same\n  b: same\n")

	out, err := execute(t, nil, "batch", path)
	if err != nil {
		t.Fatalf("batch returned error: %v", err)
	}

	want := "== row-1 ==\na [-b-] {+x+} c\n\n== row-2 ==\nsame\n"
	if out != want {
		t.Errorf("output = %q; want %q", out, want)
	}
}

func TestBatchCmd_JSON(t *testing.T) {
	path := writeFile(t, "pairs.json", `{"pairs":[{"a":"x","b":"y"}]}`)

	out, err := execute(t, nil, "batch", path, "--format", "json")
	if err != nil {
		t.Fatalf("batch returned error: %v", err)
	}

	var docs []report.Document
	if err := json.Unmarshal([]byte(out), &docs); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}

	if len(docs) != 1 || docs[0].Name != "#1" || docs[0].Identical {
		t.Errorf("docs = %+v", docs)
	}
}

func TestBatchCmd_MissingFile(t *testing.T) {
	if _, err := execute(t, nil, "batch", "/nonexistent/pairs.yaml"); err == nil {
		t.Fatal("want error for missing batch file")
	}
}
