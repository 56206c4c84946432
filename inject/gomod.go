package inject

import (
	"context"
	"path"

	"github.com/viant/afs"
	"golang.org/x/mod/modfile"

	"github.com/viant/rpgraph/internal/rlog"
)

// LoadGoModulePath reads go.mod under repoRoot (via fs, defaulting to
// afs.New() when nil) and returns the module's declared path, letting
// resolveGoImport map an absolute Go import back to a repository-relative
// file the way the Go toolchain itself resolves package-path imports — by
// module path, not by a bare suffix match. A missing or unparsable go.mod
// is not an error: the caller falls back to suffix-match resolution.
func LoadGoModulePath(ctx context.Context, fs afs.Service, repoRoot string) (string, bool) {
	if fs == nil {
		fs = afs.New()
	}
	log := rlog.Named("inject")
	data, err := fs.DownloadWithURL(ctx, path.Join(repoRoot, "go.mod"))
	if err != nil {
		log.Warn("no go.mod found, Go imports resolve by suffix match only", "root", repoRoot, "error", err)
		return "", false
	}
	mf, err := modfile.Parse("go.mod", data, nil)
	if err != nil || mf.Module == nil {
		log.Warn("unparsable go.mod, Go imports resolve by suffix match only", "root", repoRoot, "error", err)
		return "", false
	}
	return mf.Module.Mod.Path, true
}
