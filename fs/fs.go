// Package fs implements the file system proper on top of a volume image: the
// free-list block and inode allocators, directory entry management, path
// resolution, and the multi-step operations behind each shell verb. Every
// multi-step operation either completes or rolls back all of its allocations;
// an object only becomes reachable through a directory entry once every
// resource it needs is already in place.
//
// FileSystem is not safe for concurrent use. Operations run one at a time to
// completion; if callers ever need concurrency, the right lock boundary is
// the whole operation, since the allocators and directory code are not built
// for interleaved mutation.
package fs

import (
	"io"
	"time"

	"minifs"
	"minifs/volume"
)

// FileSystem binds a volume image to the mutable session state on top of it:
// the current directory inode and the canonical current path string.
type FileSystem struct {
	vol     *volume.Volume
	cwd     volume.Inumber
	cwdPath string
}

// Format creates a fresh file system: an initialized volume plus a root
// directory holding its two mandatory entries.
func Format(geom volume.Geometry) (*FileSystem, error) {
	vol, err := volume.Format(geom)
	if err != nil {
		return nil, err
	}
	fs := New(vol)

	rootBlock, err := fs.allocateBlock()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	root := volume.Inode{
		Kind:       volume.KindDirectory,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	root.Direct[0] = rootBlock
	vol.WriteInode(volume.RootInumber, root)

	if err := fs.initDirectory(volume.RootInumber, volume.RootInumber); err != nil {
		return nil, err
	}
	return fs, nil
}

// New wraps an already formatted (typically just loaded) volume. The session
// starts at the root directory.
func New(vol *volume.Volume) *FileSystem {
	return &FileSystem{
		vol:     vol,
		cwd:     volume.RootInumber,
		cwdPath: "/",
	}
}

// Load reads a volume image from r and opens a file system over it.
func Load(r io.Reader) (*FileSystem, error) {
	vol, err := volume.Load(r)
	if err != nil {
		return nil, err
	}
	return New(vol), nil
}

// Volume returns the underlying volume image.
func (fs *FileSystem) Volume() *volume.Volume {
	return fs.vol
}

// WorkingDir returns the canonical path of the current directory.
func (fs *FileSystem) WorkingDir() string {
	return fs.cwdPath
}

// Save serializes the whole volume image to w, byte for byte.
func (fs *FileSystem) Save(w io.Writer) error {
	_, err := fs.vol.WriteTo(w)
	if err != nil {
		return minifs.ErrInvalidVolume.Wrap(err)
	}
	return nil
}

// Summary is a point-in-time snapshot of the volume's capacity counters.
type Summary struct {
	BlockSize   uint32
	TotalBlocks uint32
	FreeBlocks  uint32
	UsedBlocks  uint32
	TotalInodes uint32
	FreeInodes  uint32
	UsedInodes  uint32
	TotalBytes  uint64
	FreeBytes   uint64
	UsedBytes   uint64
}

// Summary reports the volume's block, inode, and byte usage from the
// superblock counters.
func (fs *FileSystem) Summary() Summary {
	sb := fs.vol.ReadSuperBlock()
	s := Summary{
		BlockSize:   sb.BlockSize,
		TotalBlocks: sb.TotalBlocks,
		FreeBlocks:  sb.FreeBlocks,
		UsedBlocks:  sb.TotalBlocks - sb.FreeBlocks,
		TotalInodes: sb.MaxInodes,
		FreeInodes:  sb.FreeInodes,
		UsedInodes:  sb.MaxInodes - sb.FreeInodes,
	}
	s.TotalBytes = uint64(s.TotalBlocks) * uint64(sb.BlockSize)
	s.FreeBytes = uint64(s.FreeBlocks) * uint64(sb.BlockSize)
	s.UsedBytes = uint64(s.UsedBlocks) * uint64(sb.BlockSize)
	return s
}
