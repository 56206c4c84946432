package encode

import (
	"github.com/viant/rpgraph/ast"
	"github.com/viant/rpgraph/graph"
)

// entityNodeID builds the `{relativePath}:{entityType}:{qualifiedName}`
// LowLevel node id scheme (§4.5).
func entityNodeID(relPath string, e ast.CodeEntity) string {
	return relPath + ":" + string(graphEntityKind(e.Kind)) + ":" + e.QualifiedName
}

// graphEntityKind maps the AST Surface's entity kinds (which also carries
// variable/import for symbol-table use) onto the three kinds that ever
// become LowLevel nodes.
func graphEntityKind(k ast.EntityKind) graph.EntityKind {
	switch k {
	case ast.KindClass:
		return graph.EntityClass
	case ast.KindMethod:
		return graph.EntityMethod
	default:
		return graph.EntityFunction
	}
}

// fileMetadata is the StructuralMetadata for a file-level LowLevel node.
func fileMetadata(relPath string, lang graph.Language) graph.StructuralMetadata {
	return graph.StructuralMetadata{
		EntityType: graph.EntityFile,
		Path:       relPath,
		Language:   lang,
	}
}

// entityMetadata is the StructuralMetadata for an entity-level LowLevel node.
func entityMetadata(relPath string, lang graph.Language, e ast.CodeEntity) graph.StructuralMetadata {
	return graph.StructuralMetadata{
		EntityType:    graphEntityKind(e.Kind),
		Path:          relPath,
		QualifiedName: e.QualifiedName,
		Language:      lang,
		StartLine:     e.StartLine,
		EndLine:       e.EndLine,
	}
}
