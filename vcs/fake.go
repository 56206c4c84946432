package vcs

import "context"

// FakeBackend is a deterministic Backend for tests: it returns a canned
// slice of FileChange regardless of repoRoot/commitRange.
type FakeBackend struct {
	Changes []FileChange
	Err     error
}

func (f *FakeBackend) Diff(context.Context, string, string) ([]FileChange, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Changes, nil
}
