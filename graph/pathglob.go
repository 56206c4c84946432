package graph

import "strings"

// MatchPathGlob matches a path against a glob pattern: both are split on
// '/'; a bare '*' matches exactly one segment; '**' matches zero or more
// segments; a '*' embedded in a segment (e.g. "utils*") matches within
// that segment only.
func MatchPathGlob(glob, path string) bool {
	globSegs := strings.Split(glob, "/")
	pathSegs := strings.Split(path, "/")
	return matchSegs(globSegs, pathSegs)
}

func matchSegs(glob, path []string) bool {
	if len(glob) == 0 {
		return len(path) == 0
	}
	head := glob[0]
	if head == "**" {
		if matchSegs(glob[1:], path) {
			return true
		}
		if len(path) == 0 {
			return false
		}
		return matchSegs(glob, path[1:])
	}
	if len(path) == 0 {
		return false
	}
	if !matchSeg(head, path[0]) {
		return false
	}
	return matchSegs(glob[1:], path[1:])
}

// matchSeg matches one glob segment against one path segment, honoring
// '*' wildcards embedded in the segment.
func matchSeg(glob, seg string) bool {
	if glob == "*" {
		return true
	}
	if !strings.Contains(glob, "*") {
		return glob == seg
	}
	parts := strings.Split(glob, "*")
	if !strings.HasPrefix(seg, parts[0]) {
		return false
	}
	seg = seg[len(parts[0]):]
	for _, part := range parts[1 : len(parts)-1] {
		idx := strings.Index(seg, part)
		if idx < 0 {
			return false
		}
		seg = seg[idx+len(part):]
	}
	last := parts[len(parts)-1]
	return strings.HasSuffix(seg, last) && len(seg) >= len(last)
}
