// Package volume implements the raw byte image of a simulated file system
// volume and the typed codecs laid over it: the superblock at block 0, the
// inode table in the blocks that follow, and whole-block access to the data
// region. Nothing in this package interprets directory entries or free lists;
// that is the fs package's job.
//
// All block indexes begin at 0. Block 0 is never allocatable and doubles as
// the null sentinel for both block numbers and directory entry slots.
package volume

import (
	"fmt"

	"minifs"
)

// BlockNum is the index of a block within the volume. 0 is the null sentinel.
type BlockNum uint32

// Inumber is the index of an inode record within the inode table. Inode 0 is
// the volume's root directory and is never freed.
type Inumber uint32

// NilBlock is the "no block" sentinel shared by inode block pointers and the
// free list terminators.
const NilBlock = BlockNum(0)

// RootInumber is the inode number of the root directory.
const RootInumber = Inumber(0)

// Magic identifies a formatted volume image.
const Magic = uint32(0x12345678)

const (
	// InodeSize is the size of one encoded inode record, in bytes.
	InodeSize = 64
	// DirectBlocks is the number of direct block pointers in an inode.
	DirectBlocks = 10
	// MaxNameLength is the on-disk size of a directory entry name, including
	// the NUL terminator; usable names are at most MaxNameLength-1 bytes.
	MaxNameLength = 28
	// DirEntrySize is the size of one encoded directory entry, in bytes.
	DirEntrySize = 32
)

// Geometry describes the shape of a volume. The zero value is not usable;
// start from DefaultGeometry or a profile.
type Geometry struct {
	BlockSize   uint32
	TotalBlocks uint32
	MaxInodes   uint32
}

// DefaultGeometry is the canonical 1 MiB volume layout: 1024 blocks of 1024
// bytes and 128 inodes. Images formatted with it are byte-compatible with the
// original filesystem.dat files.
var DefaultGeometry = Geometry{
	BlockSize:   1024,
	TotalBlocks: 1024,
	MaxInodes:   128,
}

// Validate returns an error if the geometry cannot hold a well-formed volume.
func (g Geometry) Validate() error {
	if g.BlockSize < DirEntrySize || g.BlockSize%4 != 0 {
		return minifs.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("block size %d must be a multiple of 4 and at least %d",
				g.BlockSize, DirEntrySize))
	}
	if g.MaxInodes < 2 {
		return minifs.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("need at least 2 inodes, got %d", g.MaxInodes))
	}
	if g.TotalBlocks <= uint32(g.FirstDataBlock()) {
		return minifs.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("%d blocks leave no data region after %d metadata blocks",
				g.TotalBlocks, g.FirstDataBlock()))
	}
	return nil
}

// InodeBlocks returns the number of blocks occupied by the inode table.
func (g Geometry) InodeBlocks() uint32 {
	return (g.MaxInodes*InodeSize + g.BlockSize - 1) / g.BlockSize
}

// FirstDataBlock returns the first allocatable block: everything below it is
// the superblock and the inode table.
func (g Geometry) FirstDataBlock() BlockNum {
	return BlockNum(1 + g.InodeBlocks())
}

// PointersPerBlock returns how many block numbers fit in one indirect block.
func (g Geometry) PointersPerBlock() uint32 {
	return g.BlockSize / 4
}

// EntriesPerBlock returns how many directory entries fit in one block.
func (g Geometry) EntriesPerBlock() uint32 {
	return g.BlockSize / DirEntrySize
}

// MaxFileBlocks returns the largest number of content blocks a single inode
// can address through its direct and single-indirect pointers.
func (g Geometry) MaxFileBlocks() uint32 {
	return DirectBlocks + g.PointersPerBlock()
}

// MaxFileSize returns the largest content size in bytes a single inode can
// address.
func (g Geometry) MaxFileSize() uint32 {
	return g.MaxFileBlocks() * g.BlockSize
}

// BlocksFor returns the number of content blocks needed to hold size bytes.
// The ceiling is computed in 64 bits so sizes near 4 GiB cannot wrap to a
// tiny block count.
func (g Geometry) BlocksFor(size uint32) uint32 {
	return uint32((uint64(size) + uint64(g.BlockSize) - 1) / uint64(g.BlockSize))
}

// Size returns the total size of the volume image, in bytes.
func (g Geometry) Size() int64 {
	return int64(g.BlockSize) * int64(g.TotalBlocks)
}
