package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

const classifyFixture = "testdata/classify.log"

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestClassifyFile_Golden(t *testing.T) {
	tests := []struct {
		name string
		opts classifyOptions
	}{
		{name: "classify_jsonl", opts: classifyOptions{player: "Alice", format: "jsonl"}},
		{name: "classify_pretty", opts: classifyOptions{player: "Alice", format: "pretty"}},
		{name: "classify_kinds", opts: classifyOptions{player: "Alice", format: "pretty", kinds: []string{"Kill", " death "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			if err := classifyFile(context.Background(), classifyFixture, tt.opts, &out, &errOut); err != nil {
				t.Fatalf("classifyFile() error = %v", err)
			}
			newGoldie(t).Assert(t, tt.name, out.Bytes())
		})
	}
}

func TestClassifyFile_Raw(t *testing.T) {
	var out bytes.Buffer
	opts := classifyOptions{player: "Alice", format: "jsonl", raw: true, kinds: []string{"spawn"}}
	if err := classifyFile(context.Background(), classifyFixture, opts, &out, &bytes.Buffer{}); err != nil {
		t.Fatalf("classifyFile() error = %v", err)
	}
	if !strings.Contains(out.String(), `"raw_line":"\"Alice<2>`) {
		t.Errorf("raw line missing from output: %s", out.String())
	}
}

func TestClassifyFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		opts classifyOptions
		want string
	}{
		{name: "bad format", path: classifyFixture, opts: classifyOptions{format: "xml"}, want: "unknown format"},
		{name: "bad kind", path: classifyFixture, opts: classifyOptions{format: "jsonl", kinds: []string{"headshot"}}, want: "unknown event kind"},
		{name: "missing file", path: filepath.Join(t.TempDir(), "none.log"), opts: classifyOptions{format: "jsonl"}, want: "none.log"},
		{name: "missing rules", path: classifyFixture, opts: classifyOptions{format: "jsonl", rules: "testdata/none.yaml"}, want: "load rules"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyFile(context.Background(), tt.path, tt.opts, &bytes.Buffer{}, &bytes.Buffer{})
			if err == nil {
				t.Fatal("classifyFile() error = nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestClassifyFile_ExtraRules(t *testing.T) {
	rules := filepath.Join(t.TempDir(), "rules.yaml")
	content := `version: 1
rules:
  - id: humiliation
    kind: kill
    scope: versus
    regex: '^{actor} humiliated {target}$'
`
	if err := os.WriteFile(rules, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	log := filepath.Join(t.TempDir(), "console.log")
	if err := os.WriteFile(log, []byte("Alice humiliated Bob\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	opts := classifyOptions{player: "Alice", format: "pretty", rules: rules}
	if err := classifyFile(context.Background(), log, opts, &out, &bytes.Buffer{}); err != nil {
		t.Fatalf("classifyFile() error = %v", err)
	}
	want := "[--:--:--] kill \"unknown weapon\" (1) actor=Alice target=Bob\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}
