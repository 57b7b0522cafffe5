package metadb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/datastx/Feather-Flow-sub003/selector"
)

// Manifest implements selector.ReferenceManifest against the last
// compile recorded in the meta database for one project: the `state:`
// selector predicate's idea of "what did we build last time".
type Manifest struct {
	refs map[string]selector.ModelRef
}

// LoadManifest reads every model row (and its dependency edges)
// currently recorded for projectID into a Manifest.
func LoadManifest(ctx context.Context, db *sql.DB, projectID int64) (*Manifest, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT model_id, name, sql_checksum, schema_name, materialization FROM models WHERE project_id = ?`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest models: %w", err)
	}
	defer rows.Close()

	refs := make(map[string]selector.ModelRef)
	idToName := make(map[int64]string)

	for rows.Next() {
		var (
			modelID                                  int64
			name, checksum, schemaName, materialized sql.NullString
		)

		if err := rows.Scan(&modelID, &name, &checksum, &schemaName, &materialized); err != nil {
			return nil, fmt.Errorf("failed to scan manifest model: %w", err)
		}

		idToName[modelID] = name.String
		refs[name.String] = selector.ModelRef{
			Materialized: materialized.String,
			Schema:       schemaName.String,
			SQLChecksum:  checksum.String,
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("manifest model iteration failed: %w", err)
	}

	depRows, err := db.QueryContext(ctx,
		`SELECT model_id, depends_on_model_id FROM model_dependencies
		 WHERE model_id IN (SELECT model_id FROM models WHERE project_id = ?)`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest dependencies: %w", err)
	}
	defer depRows.Close()

	for depRows.Next() {
		var modelID, dependsOnID int64

		if err := depRows.Scan(&modelID, &dependsOnID); err != nil {
			return nil, fmt.Errorf("failed to scan manifest dependency: %w", err)
		}

		name := idToName[modelID]
		ref := refs[name]
		ref.DependsOn = append(ref.DependsOn, idToName[dependsOnID])
		refs[name] = ref
	}

	if err := depRows.Err(); err != nil {
		return nil, fmt.Errorf("manifest dependency iteration failed: %w", err)
	}

	return &Manifest{refs: refs}, nil
}

// ContainsModel implements selector.ReferenceManifest.
func (m *Manifest) ContainsModel(name string) bool {
	_, ok := m.refs[name]
	return ok
}

// GetModelRef implements selector.ReferenceManifest.
func (m *Manifest) GetModelRef(name string) (selector.ModelRef, bool) {
	ref, ok := m.refs[name]
	return ref, ok
}
