package state

import "sort"

// MaterializationSnapshot records the materialization configuration a
// model was built with, so a later run can detect drift.
type MaterializationSnapshot struct {
	Kind                string
	Schema              string
	UniqueKey           []string
	IncrementalStrategy string
	OnSchemaChange      string
}

// Equal reports whether two snapshots describe the same materialization.
func (m MaterializationSnapshot) Equal(other MaterializationSnapshot) bool {
	if m.Kind != other.Kind || m.Schema != other.Schema ||
		m.IncrementalStrategy != other.IncrementalStrategy || m.OnSchemaChange != other.OnSchemaChange {
		return false
	}

	return equalStringSets(m.UniqueKey, other.UniqueKey)
}

// ModelState is one model's recorded state as of a run: its SQL and
// schema checksums, the sql-checksums of its direct upstream models at
// that time, its row count if known, and its materialization snapshot.
type ModelState struct {
	SQLChecksum       string
	SchemaChecksum    string // empty means the model has no declared schema
	HasSchema         bool
	UpstreamChecksums map[string]string
	RowCount          *int64
	Materialization   MaterializationSnapshot
}

// IsModified reports whether current is modified relative to reference,
// per the rule: new, or its sql-checksum differs, or its schema-checksum
// differs (including presence/absence flips), or any upstream-checksum
// value differs, or the upstream-key set differs.
func IsModified(current ModelState, reference ModelState, referenceExists bool) bool {
	if !referenceExists {
		return true
	}

	if current.SQLChecksum != reference.SQLChecksum {
		return true
	}

	if current.HasSchema != reference.HasSchema || current.SchemaChecksum != reference.SchemaChecksum {
		return true
	}

	if !equalStringSets(upstreamKeys(current.UpstreamChecksums), upstreamKeys(reference.UpstreamChecksums)) {
		return true
	}

	for upstream, checksum := range current.UpstreamChecksums {
		if reference.UpstreamChecksums[upstream] != checksum {
			return true
		}
	}

	return false
}

// IsSkippable reports whether a model can be skipped in the current
// run: its stored state row exists and it is not modified.
func IsSkippable(current ModelState, reference ModelState, referenceExists bool) bool {
	return referenceExists && !IsModified(current, reference, referenceExists)
}

func upstreamKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

func equalStringSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	aSorted := append([]string(nil), a...)
	bSorted := append([]string(nil), b...)

	sort.Strings(aSorted)
	sort.Strings(bSorted)

	for i := range aSorted {
		if aSorted[i] != bSorted[i] {
			return false
		}
	}

	return true
}
