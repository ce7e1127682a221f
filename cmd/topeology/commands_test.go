package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"topeology/internal/compare"
	"topeology/internal/pmbec"
	"topeology/internal/services"
	"topeology/internal/testsupport"
)

func TestCurateCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"curate", "--format", "csv"}, env.configPath)
	if err != nil {
		t.Fatalf("curate: %v", err)
	}
	want := "iedb_epitope,epitope_length,positive_ratio\nSIINFEKL,8,1.00\nGILGFVFTL,9,1.00\n"
	if out != want {
		t.Fatalf("unexpected output:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"curate", "--format", "csv", "--hla"}, env.configPath)
	if err != nil {
		t.Fatalf("curate --hla: %v", err)
	}
	requireContains(t, out, "SIINFEKL,8,1.00,A0201")
	requireContains(t, out, "SIINFEKL,8,1.00,B0702")

	out, _, err = runCLI(t, []string{"curate", "--format", "csv", "--exclude", "Epitope Source Organism Name=influenza"}, env.configPath)
	if err != nil {
		t.Fatalf("curate --exclude: %v", err)
	}
	if strings.TrimSpace(out) != "iedb_epitope,epitope_length,positive_ratio" {
		t.Fatalf("expected only a header, got:\n%s", out)
	}
}

func TestCurateRejectsBadFlags(t *testing.T) {
	env := setupCLITestEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"malformed exclude", []string{"curate", "--exclude", "influenza"}},
		{"ratio above one", []string{"curate", "--positive-ratio", "1.5"}},
		{"unknown format", []string{"curate", "--format", "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.args, env.configPath)
			if !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestCurateMissingExport(t *testing.T) {
	env := setupCLITestEnv(t)
	missing := filepath.Join(env.baseDir, "absent.csv")

	_, _, err := runCLI(t, []string{"curate", "--iedb", missing}, env.configPath)
	if !errors.Is(err, services.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestCurateReusesCachedReferenceSet(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStore())

	first, stderr, err := runCLI(t, []string{"curate", "--format", "csv"}, env.configPath)
	if err != nil {
		t.Fatalf("first curate: %v", err)
	}
	requireContains(t, stderr, "reference set curated")

	second, stderr, err := runCLI(t, []string{"curate", "--format", "csv"}, env.configPath)
	if err != nil {
		t.Fatalf("second curate: %v", err)
	}
	requireContains(t, stderr, "using cached reference set")
	if first != second {
		t.Fatalf("cached output differs:\n%s\n%s", first, second)
	}

	out, _, err := runCLI(t, []string{"cache", "prune", "--older-than=-1h"}, env.configPath)
	if err != nil {
		t.Fatalf("cache prune: %v", err)
	}
	requireContains(t, out, "Removed 1 cached reference sets")
}

func TestMatrixCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"matrix", "--format", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("matrix: %v", err)
	}
	var view matrixView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode matrix: %v", err)
	}
	if view.Letters != pmbec.Alphabet || len(view.Rows) != len(pmbec.Alphabet) {
		t.Fatalf("unexpected matrix shape: %q, %d rows", view.Letters, len(view.Rows))
	}
	if view.Max != pmbec.Scale || view.GapPenalty != -view.Min {
		t.Fatalf("unexpected summary: gap %d min %d max %d", view.GapPenalty, view.Min, view.Max)
	}

	out, _, err = runCLI(t, []string{"matrix", "--format", "csv"}, env.configPath)
	if err != nil {
		t.Fatalf("matrix csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != len(pmbec.Alphabet)+1 {
		t.Fatalf("expected %d csv lines, got %d", len(pmbec.Alphabet)+1, len(lines))
	}
	if !strings.HasPrefix(lines[0], ",A,R,N,D") || !strings.HasPrefix(lines[1], "A,100,") {
		t.Fatalf("unexpected csv head:\n%s\n%s", lines[0], lines[1])
	}

	out, _, err = runCLI(t, []string{"matrix", "--format", "table"}, env.configPath)
	if err != nil {
		t.Fatalf("matrix table: %v", err)
	}
	requireContains(t, strings.ToLower(out), "gap ")
}

func TestMatrixMissingTable(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Paths.PMBECPath = filepath.Join(env.baseDir, "absent.mat")
	writeTestConfig(t, env.configPath, env.cfg)

	_, _, err := runCLI(t, []string{"matrix"}, env.configPath)
	if !errors.Is(err, services.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestGenerateCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "generated.csv")

	out, _, err := runCLI(t, []string{"generate", "--length", "25", "--output", target, "--seed", "3", "--epitope-lengths", "9"}, env.configPath)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	requireContains(t, out, "Wrote 25 candidates")

	candidates, err := compare.LoadCandidates(target)
	if err != nil {
		t.Fatalf("load generated candidates: %v", err)
	}
	if len(candidates) != 25 {
		t.Fatalf("expected 25 candidates, got %d", len(candidates))
	}
	for _, c := range candidates {
		if c.Length() != 9 {
			t.Fatalf("unexpected length %d for %+v", c.Length(), c)
		}
	}

	again := filepath.Join(env.baseDir, "again.csv")
	if _, _, err := runCLI(t, []string{"generate", "--length", "25", "--output", again, "--seed", "3", "--epitope-lengths", "9"}, env.configPath); err != nil {
		t.Fatalf("generate again: %v", err)
	}
	if testsupport.ReadFile(t, target) != testsupport.ReadFile(t, again) {
		t.Fatal("same seed produced different files")
	}

	if _, _, err := runCLI(t, []string{"generate", "--output", target}, env.configPath); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration without --length, got %v", err)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+env.configPath)
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting an existing file")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestRunsListEmptyStore(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStore())

	out, _, err := runCLI(t, []string{"runs", "list", "--format", "table"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	requireContains(t, out, "No stored runs")

	out, _, err = runCLI(t, []string{"runs", "list", "--format", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list json: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Fatalf("expected empty JSON array, got %q", out)
	}
}

func TestResolveFormat(t *testing.T) {
	var buf bytes.Buffer
	tests := []struct {
		value string
		want  string
	}{
		{"", formatCSV},
		{"auto", formatCSV},
		{"CSV", formatCSV},
		{"table", formatTable},
		{" json ", formatJSON},
	}
	for _, tt := range tests {
		got, err := resolveFormat(tt.value, &buf)
		if err != nil {
			t.Fatalf("resolveFormat(%q): %v", tt.value, err)
		}
		if got != tt.want {
			t.Fatalf("resolveFormat(%q) = %q, want %q", tt.value, got, tt.want)
		}
	}
	if _, err := resolveFormat("yaml", &buf); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestCheckCommand(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStore())

	out, _, err := runCLI(t, []string{"check", "--format", "csv"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "PMBEC table,ok,")
	requireContains(t, out, "IEDB export,ok,")
	requireContains(t, out, "Result store,ok,")

	env.cfg.Paths.IEDBPath = filepath.Join(env.baseDir, "absent.csv")
	writeTestConfig(t, env.configPath, env.cfg)
	out, _, err = runCLI(t, []string{"check", "--format", "csv"}, env.configPath)
	if err == nil {
		t.Fatal("expected check to fail without an IEDB export")
	}
	requireContains(t, out, "IEDB export,fail,")
}
