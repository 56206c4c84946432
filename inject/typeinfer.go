package inject

import (
	"regexp"
	"strings"

	"github.com/viant/rpgraph/ast"
)

// receiverTypes is the per-file result of §4.8 step 4's type inference:
// local-variable and attribute assignments inferred by lightweight pattern
// matching over entity bodies (this engine has no full type checker, so
// inference is best-effort text matching the same shape the teacher's
// tree-sitter queries already use for structural extraction), plus a direct
// child->parent map for super resolution.
type receiverTypes struct {
	// localVarClass maps "qualifiedEntity\x00varName" -> inferred class.
	localVarClass map[string]string
	// fieldClass maps "className\x00fieldName" -> inferred class, recovered
	// from constructor/__init__ bodies (§4.8 step 4b).
	fieldClass map[string]string
	// superOf maps a class name to its first recorded parent, the
	// depth-first cycle-guarded MRO step of §4.8 step 4d.
	superOf map[string]string
}

var (
	// `x = Foo(` or `x := Foo(` — local variable bound to a constructor call.
	localAssignRE = regexp.MustCompile(`\b([A-Za-z_]\w*)\s*:?=\s*([A-Z]\w*)\s*\(`)
	// `self.field = Bar(` / `this.field = new Bar(`.
	fieldAssignRE = regexp.MustCompile(`\b(?:self|this)\.([A-Za-z_]\w*)\s*=\s*(?:new\s+)?([A-Z]\w*)\s*\(`)
)

func (r receiverTypes) typeOf(callerEntity, receiver string) string {
	receiver = strings.TrimSpace(receiver)
	if strings.HasPrefix(receiver, "self.") || strings.HasPrefix(receiver, "this.") {
		field := receiver[strings.Index(receiver, ".")+1:]
		class := enclosingClass(callerEntity)
		return r.fieldClass[class+"\x00"+field]
	}
	return r.localVarClass[callerEntity+"\x00"+receiver]
}

// inferReceiverTypes runs the four inference rules of §4.8 step 4 over
// every entity body in f, and records inheritances's direct parent map for
// super resolution (cycle-guarded: superOf stores only the first-seen
// parent per class, so a cyclic inheritance chain cannot loop during
// lookup since lookupMethodFile takes a single hop, not a full walk).
func inferReceiverTypes(f ParsedFile, inheritances []ast.InheritanceRelation) receiverTypes {
	out := receiverTypes{
		localVarClass: map[string]string{},
		fieldClass:    map[string]string{},
		superOf:       map[string]string{},
	}
	for _, e := range f.Entities {
		for _, m := range localAssignRE.FindAllStringSubmatch(e.Body, -1) {
			out.localVarClass[e.QualifiedName+"\x00"+m[1]] = m[2]
		}
		class := e.Parent
		if class == "" {
			class = e.Name
		}
		for _, m := range fieldAssignRE.FindAllStringSubmatch(e.Body, -1) {
			out.fieldClass[class+"\x00"+m[1]] = m[2]
		}
	}
	visited := map[string]bool{}
	for _, ih := range inheritances {
		if visited[ih.Child] {
			continue // cycle guard: keep only the first recorded parent
		}
		visited[ih.Child] = true
		out.superOf[ih.Child] = ih.Parent
	}
	return out
}
