package fs

import (
	"strings"
)

// IRODSPath is a canonicalized absolute iRODS path, stored as an ordered
// sequence of segments. Canonicalization is idempotent: re-canonicalizing a
// canonical path yields the same path.
type IRODSPath struct {
	segments []string
}

// NewIRODSPath canonicalizes a path. The OS separator is normalized to "/",
// runs of "/" collapse, "." and ".." resolve ("..", at the root, is
// discarded), and a relative path is resolved against home.
func NewIRODSPath(path string, home string) *IRODSPath {
	path = strings.ReplaceAll(path, "\\", "/")

	if !strings.HasPrefix(path, "/") {
		home = strings.ReplaceAll(home, "\\", "/")
		path = home + "/" + path
	}

	segments := []string{}
	for _, segment := range strings.Split(path, "/") {
		switch segment {
		case "", ".":
			// collapsed
		case "..":
			if len(segments) > 0 {
				segments = segments[:len(segments)-1]
			}
			// ".." at the root is discarded
		default:
			segments = append(segments, segment)
		}
	}

	return &IRODSPath{
		segments: segments,
	}
}

// String reconstructs the absolute path
func (path *IRODSPath) String() string {
	if len(path.segments) == 0 {
		return "/"
	}

	return "/" + strings.Join(path.segments, "/")
}

// Name returns the leaf name, or "/" for the root
func (path *IRODSPath) Name() string {
	if len(path.segments) == 0 {
		return "/"
	}

	return path.segments[len(path.segments)-1]
}

// Parent returns the parent path; the parent of the root is the root
func (path *IRODSPath) Parent() *IRODSPath {
	if len(path.segments) == 0 {
		return &IRODSPath{}
	}

	parentSegments := make([]string, len(path.segments)-1)
	copy(parentSegments, path.segments[:len(path.segments)-1])

	return &IRODSPath{
		segments: parentSegments,
	}
}

// Join returns the path extended with one name
func (path *IRODSPath) Join(name string) *IRODSPath {
	return NewIRODSPath(path.String()+"/"+name, "/")
}

// IsRoot returns true for the zone root
func (path *IRODSPath) IsRoot() bool {
	return len(path.segments) == 0
}

// Depth returns the number of segments
func (path *IRODSPath) Depth() int {
	return len(path.segments)
}

// Equals compares canonical paths
func (path *IRODSPath) Equals(other *IRODSPath) bool {
	if other == nil || len(path.segments) != len(other.segments) {
		return false
	}

	for i, segment := range path.segments {
		if other.segments[i] != segment {
			return false
		}
	}

	return true
}

// IsParentOf returns true if the other path is directly under this path
func (path *IRODSPath) IsParentOf(other *IRODSPath) bool {
	if other == nil || len(other.segments) != len(path.segments)+1 {
		return false
	}

	for i, segment := range path.segments {
		if other.segments[i] != segment {
			return false
		}
	}

	return true
}

// SplitIRODSPath splits an absolute path into its parent directory and leaf
// name
func SplitIRODSPath(path string) (string, string) {
	p := NewIRODSPath(path, "/")
	return p.Parent().String(), p.Name()
}
