package pgstore

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/jackc/pgx/v5"

	"github.com/viant/rpgraph/graph"
	"github.com/viant/rpgraph/rpgerr"
)

// nodeMetadata is the JSON shape persisted in rpg_nodes.metadata, mirroring
// graph.StructuralMetadata field-for-field.
type nodeMetadata struct {
	EntityType    graph.EntityKind `json:"entityType,omitempty"`
	Path          string           `json:"path,omitempty"`
	QualifiedName string           `json:"qualifiedName,omitempty"`
	Language      graph.Language   `json:"language,omitempty"`
	StartLine     int              `json:"startLine,omitempty"`
	EndLine       int              `json:"endLine,omitempty"`
	Extra         map[string]any   `json:"extra,omitempty"`
}

func toMetadataJSON(m *graph.StructuralMetadata) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(nodeMetadata{
		EntityType: m.EntityType, Path: m.Path, QualifiedName: m.QualifiedName,
		Language: m.Language, StartLine: m.StartLine, EndLine: m.EndLine, Extra: m.Extra,
	})
}

func fromMetadataJSON(raw []byte) (*graph.StructuralMetadata, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m nodeMetadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, rpgerr.Store(err, "pgstore: decode metadata")
	}
	if reflect.DeepEqual(m, nodeMetadata{}) {
		return nil, nil
	}
	return &graph.StructuralMetadata{
		EntityType: m.EntityType, Path: m.Path, QualifiedName: m.QualifiedName,
		Language: m.Language, StartLine: m.StartLine, EndLine: m.EndLine, Extra: m.Extra,
	}, nil
}

// AddNode upserts n by id.
func (s *Store) AddNode(ctx context.Context, n *graph.Node) error {
	metaJSON, err := toMetadataJSON(n.Metadata)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO rpg_nodes (id, kind, feature_description, feature_keywords, feature_subfeatures, metadata, directory_path, source_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
		    kind                = EXCLUDED.kind,
		    feature_description = EXCLUDED.feature_description,
		    feature_keywords    = EXCLUDED.feature_keywords,
		    feature_subfeatures = EXCLUDED.feature_subfeatures,
		    metadata            = EXCLUDED.metadata,
		    directory_path      = EXCLUDED.directory_path,
		    source_code         = EXCLUDED.source_code`
	_, err = s.pool.Exec(ctx, q, n.ID, string(n.Kind), n.Feature.Description,
		n.Feature.Keywords, n.Feature.SubFeatures, metaJSON, n.DirectoryPath, n.SourceCode)
	if err != nil {
		return rpgerr.Store(err, "pgstore: add node")
	}
	return nil
}

const selectNodeCols = `id, kind, feature_description, feature_keywords, feature_subfeatures, metadata, directory_path, source_code`

func scanNode(row pgx.CollectableRow) (*graph.Node, error) {
	var (
		n       graph.Node
		kind    string
		metaRaw []byte
	)
	if err := row.Scan(&n.ID, &kind, &n.Feature.Description, &n.Feature.Keywords,
		&n.Feature.SubFeatures, &metaRaw, &n.DirectoryPath, &n.SourceCode); err != nil {
		return nil, err
	}
	n.Kind = graph.NodeKind(kind)
	meta, err := fromMetadataJSON(metaRaw)
	if err != nil {
		return nil, err
	}
	n.Metadata = meta
	return &n, nil
}

// GetNode returns rpgerr.NotFound when id is absent.
func (s *Store) GetNode(ctx context.Context, id string) (*graph.Node, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+selectNodeCols+" FROM rpg_nodes WHERE id = $1", id)
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: get node")
	}
	nodes, err := pgx.CollectRows(rows, scanNode)
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: scan node")
	}
	if len(nodes) == 0 {
		return nil, rpgerr.NotFound("node not found: %s", id)
	}
	return nodes[0], nil
}

// UpdateNode applies patch to the stored node. ExtraPatch merges into
// metadata.extra rather than replacing it; Feature, when set, replaces the
// stored feature whole, so keywords and sub-features are not unioned with
// the old ones.
func (s *Store) UpdateNode(ctx context.Context, id string, patch graph.NodePatch) error {
	n, err := s.GetNode(ctx, id)
	if err != nil {
		return err
	}
	if patch.Feature != nil {
		n.Feature = *patch.Feature
	}
	if n.Metadata == nil {
		n.Metadata = &graph.StructuralMetadata{}
	}
	if patch.EntityType != nil {
		n.Metadata.EntityType = *patch.EntityType
	}
	if patch.Path != nil {
		n.Metadata.Path = *patch.Path
	}
	if patch.QualifiedName != nil {
		n.Metadata.QualifiedName = *patch.QualifiedName
	}
	if patch.Language != nil {
		n.Metadata.Language = *patch.Language
	}
	if patch.StartLine != nil {
		n.Metadata.StartLine = *patch.StartLine
	}
	if patch.EndLine != nil {
		n.Metadata.EndLine = *patch.EndLine
	}
	if patch.ExtraPatch != nil {
		if n.Metadata.Extra == nil {
			n.Metadata.Extra = map[string]any{}
		}
		for k, v := range patch.ExtraPatch {
			n.Metadata.Extra[k] = v
		}
	}
	if patch.DirectoryPath != nil {
		n.DirectoryPath = *patch.DirectoryPath
	}
	if patch.SourceCode != nil {
		n.SourceCode = *patch.SourceCode
	}
	return s.AddNode(ctx, n)
}

// RemoveNode deletes a node; ON DELETE CASCADE removes incident edges.
// Idempotent: removing an absent id is a no-op.
func (s *Store) RemoveNode(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM rpg_nodes WHERE id = $1", id); err != nil {
		return rpgerr.Store(err, "pgstore: remove node")
	}
	return nil
}

// GetNodes lists nodes matching filter (zero value matches all).
func (s *Store) GetNodes(ctx context.Context, filter graph.NodeFilter) ([]*graph.Node, error) {
	q := "SELECT " + selectNodeCols + " FROM rpg_nodes"
	var args []any
	var conditions []string
	if filter.HasKind {
		args = append(args, string(filter.Kind))
		conditions = append(conditions, "kind = $1")
	}
	if filter.Path != "" {
		args = append(args, filter.Path)
		conditions = append(conditions, "metadata->>'path' = $"+itoa(len(args)))
	}
	if len(conditions) > 0 {
		q += " WHERE " + joinAnd(conditions)
	}
	q += " ORDER BY id"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: get nodes")
	}
	nodes, err := pgx.CollectRows(rows, scanNode)
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: scan nodes")
	}
	return nodes, nil
}
