// Package vcs is the abstract version-control boundary of §6: given a
// repository root and a commit range, return the list of files touched and
// their before/after content. Evolution (C9) is the only collaborator that
// depends on this interface; it never talks to git or GitHub directly.
package vcs

import "context"

// Status classifies how a file changed within a commit range. Renames are
// represented as a delete plus an add (§6), so Status never carries a
// "renamed" member.
type Status string

const (
	StatusAdded    Status = "added"
	StatusModified Status = "modified"
	StatusDeleted  Status = "deleted"
)

// FileChange is one file's status within a commit range, plus its content
// on either side of the range (empty when not applicable to Status).
type FileChange struct {
	File        string
	Status      Status
	OldContent  []byte
	NewContent  []byte
}

// Backend is the version-control boundary Evolution depends on.
type Backend interface {
	// Diff returns the file statuses for commitRange (range syntax is
	// backend-specific, e.g. "base...head" for git/GitHub compare).
	Diff(ctx context.Context, repoRoot, commitRange string) ([]FileChange, error)
}
