// Package inject is the Dependency Injector (C8): it resolves imports,
// builds a repository-wide symbol table, extracts call sites and
// inheritance relations via the AST Surface, applies a best-effort
// type-aware resolution pass, and emits Dependency edges at file
// granularity (spec §1 Non-goals: edges remain file- and entity-level, not
// method-level). Grounded on analyzer/golang_analyzer.go's identifier
// resolution pass and analyzer/identifier.go's scope-qualified symbol
// lookups, generalized from a single-language analyzer into the
// multi-language symbol table this component requires.
package inject

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/viant/rpgraph/ast"
	"github.com/viant/rpgraph/graph"
	"github.com/viant/rpgraph/rpg"
	"github.com/viant/rpgraph/rpgerr"
)

// ParsedFile bundles one file's AST Surface output with its source, the
// unit the Injector's phases operate over.
type ParsedFile struct {
	Path     string
	Language graph.Language
	Source   []byte
	Entities []ast.CodeEntity
	Imports  []ast.ImportDecl
}

// FileNodeID returns the file-level LowLevel node id for path, matching the
// Encoder's `{relativePath}:file` id scheme (§4.5).
func FileNodeID(relPath string) string { return relPath + ":file" }

// Injector runs the four C8 phases against a parsed file set and an
// existing RPG.
type Injector struct {
	RPG     *rpg.RPG
	Factory *ast.Factory
	// CommonNames blocks fuzzy unqualified call-target resolution for
	// generic names (§4.8 step 5, open question 2); exposed so callers can
	// extend or replace the default set.
	CommonNames map[string]bool
	// GoModulePath is the repository's go.mod module path (see
	// LoadGoModulePath), consulted before the generic suffix-match fallback
	// so a Go file's absolute import path (e.g. "github.com/x/y/graph")
	// resolves to the package directory it actually names rather than to
	// whichever file happens to share its last path segment. Empty disables
	// this step; Go imports then fall through to resolveImport's fallback.
	GoModulePath string
}

// New returns an Injector with the default common-name block list.
func New(r *rpg.RPG, factory *ast.Factory) *Injector {
	return &Injector{RPG: r, Factory: factory, CommonNames: DefaultCommonNames()}
}

// DefaultCommonNames is the default block-list of generic call-target names
// rejected during unqualified fuzzy resolution.
func DefaultCommonNames() map[string]bool {
	names := []string{"get", "set", "init", "run", "call", "do", "new", "create",
		"close", "open", "start", "stop", "update", "process", "handle", "exec", "build", "main"}
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}

// symbolTable is the repository-wide index built in phase 2.
type symbolTable struct {
	// qualified maps "Class.method" or a bare function name to its file.
	qualified map[string]string
	// unqualified maps a bare entity name to every file declaring it
	// (collision set); a unique entry resolves, 2+ entries do not.
	unqualified map[string][]string
	// classToFile maps a class/struct/trait name to its declaring file.
	classToFile map[string]string
	// fileAliases maps file path -> import alias -> resolved file path.
	fileAliases map[string]map[string]string
}

// Run executes phases 1-5 against files, emitting Dependency edges into the
// Injector's RPG.
func (inj *Injector) Run(ctx context.Context, files []ParsedFile) error {
	return inj.RunScoped(ctx, files, nil)
}

// RunScoped executes the phases for files only, resolving their imports
// against the union of the files' own paths and knownPaths (files already
// present in the graph that are not re-parsed). Evolution uses this to
// re-inject dependency edges for just the files a commit delta touched.
func (inj *Injector) RunScoped(ctx context.Context, files []ParsedFile, knownPaths []string) error {
	seen := make(map[string]bool, len(files)+len(knownPaths))
	var allPaths []string
	for _, f := range files {
		if !seen[f.Path] {
			seen[f.Path] = true
			allPaths = append(allPaths, f.Path)
		}
	}
	for _, p := range knownPaths {
		if !seen[p] {
			seen[p] = true
			allPaths = append(allPaths, p)
		}
	}

	if err := inj.injectImportEdges(ctx, files, allPaths); err != nil {
		return err
	}

	table := inj.buildSymbolTable(files, allPaths)

	for _, f := range files {
		parser, ok := inj.Factory.Get(f.Language)
		if !ok {
			continue
		}
		calls := parser.ExtractCallSites(f.Source, f.Path)
		inheritances := parser.ExtractInheritances(f.Source, f.Path)

		inferred := inferReceiverTypes(f, inheritances)
		for _, call := range calls {
			resolved := resolveCallee(call, f, inferred, table, inj.CommonNames)
			if resolved == "" || resolved == f.Path {
				continue
			}
			if err := inj.RPG.AddDependencyEdge(ctx, rpg.DependencyEdgeArgs{
				Source: FileNodeID(f.Path), Target: FileNodeID(resolved), DependencyType: graph.DepCall,
			}); err != nil {
				return rpgerr.Store(err, "add call dependency edge")
			}
		}

		for _, ih := range inheritances {
			targetFile, ok := table.classToFile[ih.Parent]
			if !ok || targetFile == f.Path {
				continue
			}
			depType := graph.DepInherit
			if ih.IsInterface {
				depType = graph.DepImplement
			}
			if err := inj.RPG.AddDependencyEdge(ctx, rpg.DependencyEdgeArgs{
				Source: FileNodeID(f.Path), Target: FileNodeID(targetFile), DependencyType: depType,
			}); err != nil {
				return rpgerr.Store(err, "add inheritance dependency edge")
			}
		}
	}
	return nil
}

// injectImportEdges is phase 1: resolve each import to a target file and
// emit a Dependency{import} edge (§4.8 step 1).
func (inj *Injector) injectImportEdges(ctx context.Context, files []ParsedFile, allPaths []string) error {
	for _, f := range files {
		for _, imp := range f.Imports {
			target, ok := inj.resolve(imp, f.Path, f.Language, allPaths)
			if !ok || target == f.Path {
				continue
			}
			if err := inj.RPG.AddDependencyEdge(ctx, rpg.DependencyEdgeArgs{
				Source: FileNodeID(f.Path), Target: FileNodeID(target), DependencyType: graph.DepImport,
			}); err != nil {
				return rpgerr.Store(err, "add import dependency edge")
			}
		}
	}
	return nil
}

// resolve is phase 1/2's entry point: for Go files with a known module
// path it tries resolveGoImport first, then falls back to the generic
// relative/suffix-match resolveImport for every language.
func (inj *Injector) resolve(imp ast.ImportDecl, fromFile string, lang graph.Language, allPaths []string) (string, bool) {
	if lang == graph.LangGo && inj.GoModulePath != "" {
		if target, ok := resolveGoImport(imp.Path, inj.GoModulePath, allPaths); ok {
			return target, true
		}
	}
	return resolveImport(imp, fromFile, lang, allPaths)
}

// resolveGoImport resolves an absolute Go import path against the
// repository's own module path the way the Go toolchain resolves
// package-path imports to directories: strip the module prefix and match
// the first known file whose directory equals the remaining package path.
func resolveGoImport(importPath, modulePath string, allPaths []string) (string, bool) {
	if !strings.HasPrefix(importPath, modulePath) {
		return "", false
	}
	rel := strings.TrimPrefix(importPath, modulePath)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return "", false
	}
	var candidates []string
	for _, p := range allPaths {
		if path.Dir(p) == rel {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.Strings(candidates)
	return candidates[0], true
}

// extensionsFor returns the candidate extensions tried when resolving a
// relative import for language.
func extensionsFor(lang graph.Language) []string {
	switch lang {
	case graph.LangTypeScript:
		return []string{".ts", ".tsx", "/index.ts", "/index.tsx"}
	case graph.LangJavaScript:
		return []string{".js", ".jsx", ".mjs", "/index.js", "/index.jsx"}
	case graph.LangPython:
		return []string{".py", "/__init__.py"}
	case graph.LangRust:
		return []string{".rs", "/mod.rs"}
	case graph.LangGo:
		return []string{".go"}
	case graph.LangJava:
		return []string{".java"}
	default:
		return nil
	}
}

// resolveImport implements §4.8 step 1: (a) relative-path matching against
// known files, trying the language's extension set; (b) falling back to a
// suffix match against repo files.
func resolveImport(imp ast.ImportDecl, fromFile string, lang graph.Language, allPaths []string) (string, bool) {
	known := map[string]bool{}
	for _, p := range allPaths {
		known[p] = true
	}

	if strings.HasPrefix(imp.Path, ".") {
		base := path.Join(path.Dir(fromFile), imp.Path)
		if known[base] {
			return base, true
		}
		for _, ext := range extensionsFor(lang) {
			if known[base+ext] {
				return base + ext, true
			}
		}
	}

	// fallback: suffix match against repo files, using the last path
	// segment of the import (module-path style imports resolve by the
	// package/module's final component matching a file or directory name).
	seg := lastSegment(imp.Path)
	if seg == "" {
		return "", false
	}
	var candidates []string
	for _, p := range allPaths {
		base := strings.TrimSuffix(path.Base(p), path.Ext(p))
		if base == seg || path.Base(path.Dir(p)) == seg || strings.HasSuffix(p, "/"+seg) || strings.HasSuffix(strings.TrimSuffix(p, path.Ext(p)), seg) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 1 {
		return candidates[0], true
	}
	return "", false
}

func lastSegment(importPath string) string {
	importPath = strings.Trim(importPath, "./")
	parts := strings.FieldsFunc(importPath, func(r rune) bool { return r == '/' || r == '.' })
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// buildSymbolTable is phase 2: index entities by qualified and unqualified
// name across the repository, and record file-local alias bindings from
// imports (§4.8 step 2).
func (inj *Injector) buildSymbolTable(files []ParsedFile, allPaths []string) *symbolTable {
	table := &symbolTable{
		qualified:   map[string]string{},
		unqualified: map[string][]string{},
		classToFile: map[string]string{},
		fileAliases: map[string]map[string]string{},
	}
	for _, f := range files {
		for _, e := range f.Entities {
			table.qualified[e.QualifiedName] = f.Path
			table.unqualified[e.Name] = append(table.unqualified[e.Name], f.Path)
			if e.Kind == ast.KindClass {
				table.classToFile[e.Name] = f.Path
			}
		}
	}
	for _, f := range files {
		aliases := map[string]string{}
		for _, imp := range f.Imports {
			if target, ok := inj.resolve(imp, f.Path, f.Language, allPaths); ok {
				name := imp.Alias
				if name == "" {
					name = lastSegment(imp.Path)
				}
				aliases[name] = target
			}
		}
		table.fileAliases[f.Path] = aliases
	}
	for _, files := range table.unqualified {
		sort.Strings(files)
	}
	return table
}

// resolveCallee is phase 5: prefer the type-aware target, then the
// enclosing file's import alias, then a repository-wide unique unqualified
// match (rejecting common names); otherwise the call is dropped (§4.8
// step 5).
func resolveCallee(call ast.CallSite, f ParsedFile, inferred receiverTypes, table *symbolTable, blockList map[string]bool) string {
	if typeAware := resolveTypeAware(call, f, inferred, table); typeAware != "" {
		return typeAware
	}
	if aliases, ok := table.fileAliases[f.Path]; ok {
		if call.Receiver != "" {
			if target, ok := aliases[call.Receiver]; ok {
				return target
			}
		}
		if target, ok := aliases[call.CalleeSymbol]; ok {
			return target
		}
	}
	if blockList[strings.ToLower(call.CalleeSymbol)] {
		return ""
	}
	if files, ok := table.unqualified[call.CalleeSymbol]; ok && len(files) == 1 {
		return files[0]
	}
	return ""
}

// resolveTypeAware implements §4.8 step 4/5's receiver resolution: self/this
// to the enclosing class, super via the inheritance MRO, and variable
// receivers via the inferred local/attribute type map.
func resolveTypeAware(call ast.CallSite, f ParsedFile, inferred receiverTypes, table *symbolTable) string {
	switch call.ReceiverKind {
	case ast.ReceiverSelf:
		class := enclosingClass(call.CallerEntity)
		if class == "" {
			return ""
		}
		return lookupMethodFile(class, call.CalleeSymbol, table)
	case ast.ReceiverSuper:
		class := enclosingClass(call.CallerEntity)
		parent := inferred.superOf[class]
		if parent == "" {
			return ""
		}
		return lookupMethodFile(parent, call.CalleeSymbol, table)
	case ast.ReceiverVariable:
		class := inferred.typeOf(call.CallerEntity, call.Receiver)
		if class == "" {
			return ""
		}
		return lookupMethodFile(class, call.CalleeSymbol, table)
	default:
		return ""
	}
}

func lookupMethodFile(class, method string, table *symbolTable) string {
	if f, ok := table.qualified[class+"."+method]; ok {
		return f
	}
	return table.classToFile[class]
}

func enclosingClass(callerEntity string) string {
	if i := strings.Index(callerEntity, "."); i >= 0 {
		return callerEntity[:i]
	}
	return ""
}
