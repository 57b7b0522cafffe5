package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestChecksumDeterministic(t *testing.T) {
	a := Checksum("select 1")
	b := Checksum("select 1")
	assert.Equal(t, a, b)
	assert.Equal(t, 64, len(a))
}

func TestChecksumDiffersOnContent(t *testing.T) {
	assert.NotEqual(t, Checksum("select 1"), Checksum("select 2"))
}

func TestConfigHashStable(t *testing.T) {
	assert.Equal(t, ConfigHash("proj", "meta.db", "public"), ConfigHash("proj", "meta.db", "public"))
	assert.NotEqual(t, ConfigHash("proj", "meta.db", "public"), ConfigHash("proj", "meta.db", "private"))
}

func baseModelState() ModelState {
	return ModelState{
		SQLChecksum:       "sql-1",
		SchemaChecksum:    "schema-1",
		HasSchema:         true,
		UpstreamChecksums: map[string]string{"stg_orders": "up-1"},
	}
}

func TestIsModifiedNewModel(t *testing.T) {
	assert.True(t, IsModified(baseModelState(), ModelState{}, false))
}

func TestIsModifiedSQLChanged(t *testing.T) {
	current := baseModelState()
	reference := baseModelState()
	reference.SQLChecksum = "sql-2"
	assert.True(t, IsModified(current, reference, true))
}

func TestIsModifiedSchemaPresenceFlip(t *testing.T) {
	current := baseModelState()
	reference := baseModelState()
	reference.HasSchema = false
	reference.SchemaChecksum = ""
	assert.True(t, IsModified(current, reference, true))
}

func TestIsModifiedUpstreamChecksumChanged(t *testing.T) {
	current := baseModelState()
	reference := baseModelState()
	reference.UpstreamChecksums = map[string]string{"stg_orders": "up-2"}
	assert.True(t, IsModified(current, reference, true))
}

func TestIsModifiedUpstreamKeySetChanged(t *testing.T) {
	current := baseModelState()
	reference := baseModelState()
	reference.UpstreamChecksums = map[string]string{"stg_orders": "up-1", "stg_customers": "up-3"}
	assert.True(t, IsModified(current, reference, true))
}

func TestIsModifiedFalseWhenUnchanged(t *testing.T) {
	assert.False(t, IsModified(baseModelState(), baseModelState(), true))
}

func TestIsSkippable(t *testing.T) {
	assert.True(t, IsSkippable(baseModelState(), baseModelState(), true))
	assert.False(t, IsSkippable(baseModelState(), ModelState{}, false))
}

func TestMaterializationSnapshotEqualIgnoresKeyOrder(t *testing.T) {
	a := MaterializationSnapshot{Kind: "table", UniqueKey: []string{"id", "customer_id"}}
	b := MaterializationSnapshot{Kind: "table", UniqueKey: []string{"customer_id", "id"}}
	assert.True(t, a.Equal(b))
}

func TestRunStateSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run_state.json")

	file := NewRunStateFile("hash-1", []string{"stg_orders", "fct_orders"})
	file.MarkCompleted("stg_orders", 120)
	file.MarkFailed("fct_orders", "boom")

	assert.NoError(t, Save(path, file))

	loaded, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "hash-1", loaded.ConfigHash)
	assert.Equal(t, RunCompleted, loaded.Models["stg_orders"].Status)
	assert.Equal(t, int64(120), loaded.Models["stg_orders"].DurationMs)
	assert.Equal(t, RunFailed, loaded.Models["fct_orders"].Status)
	assert.Equal(t, "boom", loaded.Models["fct_orders"].ErrorMessage)
}

func TestRunStateSaveLeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run_state.json")

	assert.NoError(t, Save(path, NewRunStateFile("hash", []string{"a"})))

	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(entries))
	assert.Equal(t, "run_state.json", entries[0].Name())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestResumePlanFullIgnoresPriorState(t *testing.T) {
	prior := NewRunStateFile("hash", []string{"a", "b"})
	prior.MarkCompleted("a", 10)

	plan := ResumePlan(ModeFull, prior, []string{"a", "b", "c"})
	assert.Equal(t, []string{"a", "b", "c"}, plan)
}

func TestResumePlanResumeExcludesCompleted(t *testing.T) {
	prior := NewRunStateFile("hash", []string{"a", "b", "c"})
	prior.MarkCompleted("a", 10)
	prior.MarkFailed("b", "boom")

	plan := ResumePlan(ModeResume, prior, []string{"a", "b", "c"})
	assert.Equal(t, []string{"b", "c"}, plan)
}

func TestResumePlanRetryFailedRestrictsToFailed(t *testing.T) {
	prior := NewRunStateFile("hash", []string{"a", "b", "c"})
	prior.MarkCompleted("a", 10)
	prior.MarkFailed("b", "boom")

	plan := ResumePlan(ModeRetryFailed, prior, []string{"a", "b", "c"})
	assert.Equal(t, []string{"b"}, plan)
}

func TestResumePlanNoPriorStateRunsEverything(t *testing.T) {
	plan := ResumePlan(ModeResume, nil, []string{"b", "a"})
	assert.Equal(t, []string{"a", "b"}, plan)
}

func TestConfigHashMismatch(t *testing.T) {
	prior := NewRunStateFile("old-hash", nil)
	assert.True(t, ConfigHashMismatch(prior, "new-hash"))
	assert.False(t, ConfigHashMismatch(prior, "old-hash"))
	assert.False(t, ConfigHashMismatch(nil, "anything"))
}
