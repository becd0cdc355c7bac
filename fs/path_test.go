package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIRODSPathCanonicalization(t *testing.T) {
	home := "/tempZone/home/rods"

	tests := []struct {
		input    string
		expected string
	}{
		{"/tempZone/home/rods", "/tempZone/home/rods"},
		{"/tempZone//home///rods/", "/tempZone/home/rods"},
		{"/tempZone/home/rods/./data", "/tempZone/home/rods/data"},
		{"/tempZone/home/rods/../alice", "/tempZone/home/alice"},
		{"/../..", "/"},
		{"/", "/"},
		{"", "/tempZone/home/rods"},
		{".", "/tempZone/home/rods"},
		{"data", "/tempZone/home/rods/data"},
		{"data/../other", "/tempZone/home/rods/other"},
		{"..", "/tempZone/home"},
		{"\\tempZone\\home\\rods", "/tempZone/home/rods"},
	}

	for _, test := range tests {
		path := NewIRODSPath(test.input, home)
		assert.Equal(t, test.expected, path.String(), "input %q", test.input)
	}
}

func TestIRODSPathCanonicalizationIdempotence(t *testing.T) {
	home := "/tempZone/home/rods"

	inputs := []string{
		"/tempZone//home/./rods/../alice/x",
		"relative/path/..",
		"/",
		"a/b/c",
	}

	for _, input := range inputs {
		once := NewIRODSPath(input, home)
		twice := NewIRODSPath(once.String(), home)
		assert.Equal(t, once.String(), twice.String(), "input %q", input)
	}
}

func TestIRODSPathNameAndParent(t *testing.T) {
	path := NewIRODSPath("/tempZone/home/rods/file.txt", "/")
	assert.Equal(t, "file.txt", path.Name())
	assert.Equal(t, "/tempZone/home/rods", path.Parent().String())

	root := NewIRODSPath("/", "/")
	assert.True(t, root.IsRoot())
	assert.Equal(t, "/", root.Name())
	assert.Equal(t, "/", root.Parent().String())
}

func TestIRODSPathJoin(t *testing.T) {
	path := NewIRODSPath("/tempZone/home", "/")
	joined := path.Join("rods")
	assert.Equal(t, "/tempZone/home/rods", joined.String())

	// join must not mutate the receiver
	assert.Equal(t, "/tempZone/home", path.String())
}

func TestIRODSPathEquality(t *testing.T) {
	a := NewIRODSPath("/tempZone/home/rods", "/")
	b := NewIRODSPath("/tempZone//home/rods/", "/")
	c := NewIRODSPath("/tempZone/home/alice", "/")

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
	assert.False(t, a.Equals(nil))
}

func TestIRODSPathIsParentOf(t *testing.T) {
	parent := NewIRODSPath("/tempZone/home", "/")
	child := NewIRODSPath("/tempZone/home/rods", "/")
	grandChild := NewIRODSPath("/tempZone/home/rods/data", "/")

	assert.True(t, parent.IsParentOf(child))
	assert.False(t, parent.IsParentOf(grandChild))
	assert.False(t, child.IsParentOf(parent))
}

func TestSplitIRODSPath(t *testing.T) {
	dir, name := SplitIRODSPath("/tempZone/home/rods/file.txt")
	assert.Equal(t, "/tempZone/home/rods", dir)
	assert.Equal(t, "file.txt", name)
}
