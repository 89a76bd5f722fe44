package replay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/toradrage/mct-trener/internal/rules"
)

// #region fixture-tests

// runFixture loads a fixture, replays it and fails on any expectation mismatch.
func runFixture(t *testing.T, name string) []ReplayResult {
	t.Helper()
	f, err := LoadFixture(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	results := Replay(f.StartState(), f.Difficulty, f.Steps, DefaultReplayConfig())
	for _, m := range f.Mismatches(results) {
		t.Error(m)
	}
	return results
}

func TestFixture_EarlyBackfire(t *testing.T) {
	results := runFixture(t, "early_backfire.yaml")
	s := Summarize(results)
	if s.Backfires != 2 {
		t.Errorf("expected 2 backfires, got %d", s.Backfires)
	}
	if results[1].CAS <= results[0].Output.CASBefore {
		t.Errorf("CAS should rise above the seed after two backfires: %.2f", results[1].CAS)
	}
}

func TestFixture_ContentPenalty(t *testing.T) {
	s := Summarize(runFixture(t, "content_penalty.yaml"))
	if s.Penalties != 2 {
		t.Errorf("expected 2 penalties, got %d", s.Penalties)
	}
}

func TestFixture_Formulation(t *testing.T) {
	results := runFixture(t, "formulation.yaml")
	s := Summarize(results)
	if s.Credited != 7 {
		t.Errorf("expected 7 credited items, got %d", s.Credited)
	}
	if !s.FinalState.FormulationComplete || !s.FinalState.Phase2Started {
		t.Errorf("expected completed formulation and phase 2: %+v", s.FinalState)
	}
	if len(s.FinalState.FormulationModel) != 7 {
		t.Errorf("expected 7 model answers, got %d", len(s.FinalState.FormulationModel))
	}
	if s.FinalEngagement == 0 {
		t.Error("expected learned engagement after the intervention turn")
	}
}

func TestLoadFixture_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")
	data := `{"description": "json", "difficulty": 1, "steps": [{"turn_id": "a", "intervention": "mindfulness"}]}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	f, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if f.Difficulty != rules.Level1 || len(f.Steps) != 1 || f.Steps[0].Intervention != rules.Mindfulness {
		t.Fatalf("unexpected fixture: %+v", f)
	}
}

// TestLoadFixture_NotFound verifies error on missing file.
func TestLoadFixture_NotFound(t *testing.T) {
	_, err := LoadFixture("testdata/nonexistent.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoadFixture_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("steps: [unclosed"), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if _, err := LoadFixture(path); err == nil {
		t.Fatal("expected error for malformed YAML, got nil")
	}
}

func TestLoadFixture_BadDifficulty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("difficulty: 7\n"), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if _, err := LoadFixture(path); err == nil {
		t.Fatal("expected error for difficulty 7, got nil")
	}
}

// #endregion fixture-tests
