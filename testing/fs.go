// Package testing provides helpers shared by the test suites: formatting
// scratch file systems and round-tripping them through an in-memory image.
package testing

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"minifs/fs"
	"minifs/volume"
)

// FormatFS formats a scratch file system with the given geometry. It is
// guaranteed to either return a usable file system or fail the test.
func FormatFS(t *testing.T, geom volume.Geometry) *fs.FileSystem {
	t.Helper()
	filesystem, err := fs.Format(geom)
	require.NoErrorf(
		t, err,
		"failed to format a %d x %d byte block volume",
		geom.TotalBlocks, geom.BlockSize,
	)
	return filesystem
}

// MiniGeometry is a small volume shape for tests that need to exhaust blocks
// or inodes quickly.
var MiniGeometry = volume.Geometry{
	BlockSize:   512,
	TotalBlocks: 128,
	MaxInodes:   32,
}

// Reload serializes the file system into an in-memory image and loads it
// back, returning the reloaded copy. The image bytes must survive the round
// trip exactly.
func Reload(t *testing.T, filesystem *fs.FileSystem) *fs.FileSystem {
	t.Helper()

	image := bytesextra.NewReadWriteSeeker(make([]byte, filesystem.Volume().Geometry().Size()))
	require.NoError(t, filesystem.Save(image), "saving the volume image failed")

	reloaded, err := volume.LoadImage(image)
	require.NoError(t, err, "reloading the volume image failed")
	require.Equal(
		t, filesystem.Volume().Bytes(), reloaded.Bytes(),
		"image bytes changed across a save/load round trip",
	)
	return fs.New(reloaded)
}
