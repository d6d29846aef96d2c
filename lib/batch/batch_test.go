// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glyphos/glifzip/lib/config"
	"github.com/glyphos/glifzip/lib/glif"
)

func TestParse(t *testing.T) {
	t.Parallel()

	data := []byte(`{
	// Jobs run in order.
	"description": "nightly archives",
	"jobs": [
		{"input": "src", "output": "src.glif", "recursive": true,
		 "level": 12, "exclude": ["*.o"]},
		/* flat file, inherits the defaults */
		{"input": "notes.txt",},
	],
}`)

	file, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if file.Description != "nightly archives" {
		t.Errorf("description = %q, want %q", file.Description, "nightly archives")
	}
	if len(file.Jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(file.Jobs))
	}

	first := file.Jobs[0]
	if first.Input != "src" || first.Output != "src.glif" {
		t.Errorf("jobs[0] = %q -> %q, want src -> src.glif", first.Input, first.Output)
	}
	if !first.Recursive {
		t.Error("jobs[0] should be recursive")
	}
	if first.Level != 12 {
		t.Errorf("jobs[0] level = %d, want 12", first.Level)
	}
	if len(first.Exclude) != 1 || first.Exclude[0] != "*.o" {
		t.Errorf("jobs[0] exclude = %v, want [*.o]", first.Exclude)
	}

	second := file.Jobs[1]
	if second.Input != "notes.txt" {
		t.Errorf("jobs[1] input = %q, want notes.txt", second.Input)
	}
	if second.Level != 0 || second.Mode != "" || second.Deterministic != nil {
		t.Error("jobs[1] should carry no overrides")
	}
}

func TestParseMalformed(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte(`{"jobs": [}`)); err == nil {
		t.Fatal("Parse accepted malformed JSON")
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "jobs.jsonc")
	content := `{
	"jobs": [
		{"input": "a.txt"}, // trailing comment
	],
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	file, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(file.Jobs) != 1 || file.Jobs[0].Input != "a.txt" {
		t.Errorf("jobs = %+v, want one job for a.txt", file.Jobs)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "absent.jsonc")); err == nil {
		t.Error("ReadFile accepted a missing file")
	}
}

func TestOutputPath(t *testing.T) {
	t.Parallel()

	explicit := Job{Input: "src", Output: "out/archive.glif"}
	if got := explicit.OutputPath(); got != "out/archive.glif" {
		t.Errorf("OutputPath() = %q, want out/archive.glif", got)
	}

	defaulted := Job{Input: "src"}
	if got := defaulted.OutputPath(); got != "src.glif" {
		t.Errorf("OutputPath() = %q, want src.glif", got)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		file           *File
		expectedIssues int
		wantSubstrings []string
	}{
		{
			name: "valid single job",
			file: &File{
				Jobs: []Job{{Input: "src", Recursive: true}},
			},
			expectedIssues: 0,
		},
		{
			name: "valid job with all overrides",
			file: &File{
				Jobs: []Job{{
					Input:     "src",
					Output:    "out.glif",
					Recursive: true,
					Level:     16,
					Workers:   4,
					Mode:      "block-only",
					Exclude:   []string{"*.o", "target"},
				}},
			},
			expectedIssues: 0,
		},
		{
			name:           "no jobs",
			file:           &File{Description: "empty"},
			expectedIssues: 1,
			wantSubstrings: []string{"no jobs"},
		},
		{
			name: "job missing input",
			file: &File{
				Jobs: []Job{{Output: "out.glif"}},
			},
			expectedIssues: 1,
			wantSubstrings: []string{"input is required"},
		},
		{
			name: "level out of range",
			file: &File{
				Jobs: []Job{{Input: "src", Level: 23}},
			},
			expectedIssues: 1,
			wantSubstrings: []string{"level must be between"},
		},
		{
			name: "negative workers",
			file: &File{
				Jobs: []Job{{Input: "src", Workers: -2}},
			},
			expectedIssues: 1,
			wantSubstrings: []string{"workers must not be negative"},
		},
		{
			name: "unknown mode",
			file: &File{
				Jobs: []Job{{Input: "src", Mode: "turbo"}},
			},
			expectedIssues: 1,
			wantSubstrings: []string{"unknown decompression mode"},
		},
		{
			name: "malformed exclude pattern",
			file: &File{
				Jobs: []Job{{Input: "src", Recursive: true, Exclude: []string{"["}}},
			},
			expectedIssues: 1,
			wantSubstrings: []string{"invalid exclude pattern"},
		},
		{
			name: "duplicate explicit outputs",
			file: &File{
				Jobs: []Job{
					{Input: "a", Output: "same.glif"},
					{Input: "b", Output: "same.glif"},
				},
			},
			expectedIssues: 1,
			wantSubstrings: []string{"duplicate output"},
		},
		{
			name: "duplicate defaulted output",
			file: &File{
				Jobs: []Job{
					{Input: "src"},
					{Input: "src", Level: 3},
				},
			},
			expectedIssues: 1,
			wantSubstrings: []string{"duplicate output"},
		},
		{
			name: "multiple issues",
			file: &File{
				Jobs: []Job{
					{Output: "orphan.glif"},        // missing input
					{Input: "src", Level: 99},      // level out of range
					{Input: "docs", Mode: "shiny"}, // unknown mode
				},
			},
			expectedIssues: 3,
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			issues := Validate(testCase.file)
			if len(issues) != testCase.expectedIssues {
				t.Fatalf("got %d issues, want %d:\n%s", len(issues), testCase.expectedIssues, strings.Join(issues, "\n"))
			}

			for _, substring := range testCase.wantSubstrings {
				found := false
				for _, issue := range issues {
					if strings.Contains(issue, substring) {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("expected issue containing %q, got:\n%s", substring, strings.Join(issues, "\n"))
				}
			}
		})
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	base := config.Default()
	base.Exclude = []string{"*.tmp"}

	t.Run("inherits defaults", func(t *testing.T) {
		t.Parallel()

		plan, err := Job{Input: "src"}.Resolve(base)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if plan.Config.Level != glif.DefaultLevel {
			t.Errorf("level = %d, want %d", plan.Config.Level, glif.DefaultLevel)
		}
		if plan.Config.Mode != glif.ModeFastWrap {
			t.Errorf("mode = %v, want fast-wrap", plan.Config.Mode)
		}
		if !plan.Config.Deterministic {
			t.Error("deterministic should inherit true")
		}
		if plan.Workers != 0 {
			t.Errorf("workers = %d, want 0", plan.Workers)
		}
		if len(plan.Exclude) != 1 || plan.Exclude[0] != "*.tmp" {
			t.Errorf("exclude = %v, want [*.tmp]", plan.Exclude)
		}
	})

	t.Run("applies overrides", func(t *testing.T) {
		t.Parallel()

		off := false
		job := Job{
			Input:         "src",
			Level:         16,
			Workers:       4,
			Mode:          "block-only",
			Deterministic: &off,
			Exclude:       []string{"*.o"},
		}
		plan, err := job.Resolve(base)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if plan.Config.Level != 16 {
			t.Errorf("level = %d, want 16", plan.Config.Level)
		}
		if plan.Config.Mode != glif.ModeBlockOnly {
			t.Errorf("mode = %v, want block-only", plan.Config.Mode)
		}
		if plan.Config.Deterministic {
			t.Error("deterministic = true, want false from override")
		}
		if plan.Workers != 4 {
			t.Errorf("workers = %d, want 4", plan.Workers)
		}
		want := []string{"*.tmp", "*.o"}
		if len(plan.Exclude) != len(want) {
			t.Fatalf("exclude = %v, want %v", plan.Exclude, want)
		}
		for i := range want {
			if plan.Exclude[i] != want[i] {
				t.Errorf("exclude[%d] = %q, want %q", i, plan.Exclude[i], want[i])
			}
		}
	})

	t.Run("rejects unknown mode", func(t *testing.T) {
		t.Parallel()

		if _, err := (Job{Input: "src", Mode: "turbo"}).Resolve(base); err == nil {
			t.Error("Resolve accepted an unknown mode")
		}
	})
}
