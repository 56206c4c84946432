package semantic

import (
	"regexp"
	"strings"

	"github.com/viant/rpgraph/ast"
	"github.com/viant/rpgraph/graph"
)

// verbPrefixes maps common identifier prefixes to a normalized verb, the
// heuristic-mode equivalent of the LLM's verb+object naming rule (§4.2).
var verbPrefixes = map[string]string{
	"get":        "retrieve",
	"set":        "assign",
	"is":         "check",
	"has":        "check",
	"new":        "create",
	"make":       "create",
	"build":      "construct",
	"create":     "create",
	"init":       "initialize",
	"parse":      "parse",
	"validate":   "validate",
	"update":     "update",
	"delete":     "delete",
	"remove":     "remove",
	"add":        "add",
	"list":       "list",
	"find":       "find",
	"search":     "search",
	"fetch":      "fetch",
	"load":       "load",
	"save":       "save",
	"write":      "write",
	"read":       "read",
	"handle":     "handle",
	"process":    "process",
	"compute":    "compute",
	"render":     "render",
	"convert":    "convert",
	"to":         "convert",
	"close":      "close",
	"open":       "open",
	"start":      "start",
	"stop":       "stop",
	"run":        "run",
	"exec":       "execute",
	"execute":    "execute",
	"apply":      "apply",
	"merge":      "merge",
	"resolve":    "resolve",
	"extract":    "extract",
	"walk":       "walk",
	"emit":       "emit",
	"encode":     "encode",
	"decode":     "decode",
	"register":   "register",
	"unregister": "unregister",
}

var splitRE = regexp.MustCompile(`[A-Z]+[a-z0-9]*|[a-z0-9]+`)

// splitWords breaks a camelCase or snake_case identifier into lowercase
// words, e.g. "extractCallSites" -> ["extract","call","sites"].
func splitWords(name string) []string {
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	var words []string
	for _, part := range strings.Fields(name) {
		for _, m := range splitRE.FindAllString(part, -1) {
			words = append(words, strings.ToLower(m))
		}
	}
	return words
}

// heuristicFeature converts an entity name to a verb+object description by
// splitting camel/snake case and mapping known prefixes (§4.2 heuristic
// mode).
func heuristicFeature(e ast.CodeEntity) graph.SemanticFeature {
	words := splitWords(e.Name)
	if len(words) == 0 {
		words = []string{"handle", string(e.Kind)}
	}
	verb := verbPrefixes[words[0]]
	object := words[1:]
	if verb == "" {
		verb = "handle"
		object = words
	}
	if len(object) == 0 {
		object = []string{string(e.Kind)}
	}
	desc := verb + " " + strings.Join(object, " ")
	desc = clampWords(desc, 3, 8)

	keywords := append([]string{verb}, object...)
	return graph.SemanticFeature{Description: desc, Keywords: dedupKeywords(keywords)}
}

// clampWords pads or trims desc so its word count falls within [min,max],
// the description-length invariant of §3.
func clampWords(desc string, min, max int) string {
	words := strings.Fields(desc)
	if len(words) > max {
		words = words[:max]
	}
	for len(words) < min {
		words = append(words, "logic")
	}
	return strings.Join(words, " ")
}

func dedupKeywords(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, k := range in {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// defaultFileFeature is the name-derived fallback used only when a file has
// no direct children (§4.2's empty-child-list rule).
func defaultFileFeature(fileName string) graph.SemanticFeature {
	base := strings.TrimSuffix(fileName, filepathExt(fileName))
	words := splitWords(base)
	if len(words) == 0 {
		words = []string{"module"}
	}
	desc := clampWords("define "+strings.Join(words, " ")+" module", 3, 8)
	return graph.SemanticFeature{Description: desc, Keywords: append([]string{"define"}, words...)}
}

func filepathExt(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i:]
	}
	return ""
}

// aggregateHeuristic synthesizes a file-level feature from child features by
// picking the most frequent keyword as the aggregate's object and merging
// the full keyword set, deduplicated (§4.2, invariant 7).
func aggregateHeuristic(children []graph.SemanticFeature, fileName string) graph.SemanticFeature {
	freq := map[string]int{}
	var merged []string
	for _, c := range children {
		for _, k := range c.Keywords {
			freq[k]++
			merged = append(merged, k)
		}
	}
	top := ""
	topCount := 0
	for _, k := range merged {
		if freq[k] > topCount {
			top, topCount = k, freq[k]
		}
	}
	verb := "provide"
	if len(children) == 1 {
		verb = "implement"
	}
	object := top
	if object == "" {
		words := splitWords(fileName)
		if len(words) > 0 {
			object = words[len(words)-1]
		} else {
			object = "logic"
		}
	}
	desc := clampWords(verb+" "+object+" functionality", 3, 8)
	return graph.SemanticFeature{Description: desc, Keywords: dedupKeywords(merged)}
}
