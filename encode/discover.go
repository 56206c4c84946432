package encode

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"

	"github.com/viant/rpgraph/rpgerr"
)

// discover is Encoder Phase 1's walk (§4.5 step 1), grounded on the
// teacher's analyzer.AnalyzeDir/analyzePackages afs.Walk visitor. A
// non-existent root yields an empty result rather than an error.
func discover(ctx context.Context, fs afs.Service, rootPath string, include, exclude []string, maxDepth int) ([]string, error) {
	if _, err := os.Stat(rootPath); err != nil {
		return nil, nil
	}
	if len(include) == 0 {
		include = []string{"**/*"}
	}
	if maxDepth <= 0 {
		maxDepth = 10
	}

	var files []string
	visitor := storage.OnVisit(func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
		rel := filepath.ToSlash(filepath.Join(parent, info.Name()))
		if info.IsDir() {
			rel = filepath.ToSlash(filepath.Join(parent, info.Name()))
			if depthOf(rel) >= maxDepth {
				return false, nil
			}
			return true, nil
		}
		if depthOf(rel) > maxDepth {
			return true, nil
		}
		if !matchAny(include, rel) {
			return true, nil
		}
		if matchAny(exclude, rel) {
			return true, nil
		}
		files = append(files, rel)
		return true, nil
	})

	if err := fs.Walk(ctx, url.NewResource(rootPath).URL, visitor); err != nil {
		return nil, rpgerr.Store(err, "walk repository root")
	}
	sort.Strings(files)
	return files, nil
}

func depthOf(rel string) int {
	if rel == "" || rel == "." {
		return 0
	}
	return strings.Count(rel, "/") + 1
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if matchGlob(p, rel) {
			return true
		}
	}
	return false
}

// matchGlob implements the §6 glob semantics generalized to per-segment
// wildcards (so "*.go" matches within a single segment): "**" matches zero
// or more path segments; any other segment is matched with filepath.Match.
func matchGlob(pattern, name string) bool {
	return matchGlobSegs(strings.Split(pattern, "/"), strings.Split(name, "/"))
}

func matchGlobSegs(pattern, name []string) bool {
	if len(pattern) == 0 {
		return len(name) == 0
	}
	head := pattern[0]
	if head == "**" {
		if matchGlobSegs(pattern[1:], name) {
			return true
		}
		if len(name) == 0 {
			return false
		}
		return matchGlobSegs(pattern, name[1:])
	}
	if len(name) == 0 {
		return false
	}
	ok, _ := filepath.Match(head, name[0])
	if !ok {
		return false
	}
	return matchGlobSegs(pattern[1:], name[1:])
}
