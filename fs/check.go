package fs

import (
	"fmt"

	"github.com/boljen/go-bitmap"
	"github.com/hashicorp/go-multierror"

	"minifs"
	"minifs/volume"
)

// CheckReport is the outcome of a best-effort volume integrity check. Err is
// nil when no problem was found, otherwise it aggregates every problem
// encountered. The check is a diagnostic; nothing is repaired.
type CheckReport struct {
	// FreeBlockListLength is the number of blocks actually reachable by
	// walking the free block list before it terminated, went out of bounds,
	// or cycled.
	FreeBlockListLength uint32
	// FreeInodeListLength is the same measurement for the free inode list.
	FreeInodeListLength uint32
	Err                 error
}

// Check walks both free lists with bounds and cycle detection, cross-checks
// the walked lengths against the superblock's free counts, and verifies no
// data block is simultaneously on the free list and referenced by an in-use
// inode.
func (fs *FileSystem) Check() CheckReport {
	sb := fs.vol.ReadSuperBlock()
	geom := fs.vol.Geometry()
	var problems *multierror.Error

	freeBlocks := bitmap.New(int(geom.TotalBlocks))
	report := CheckReport{}

	block := sb.FirstFreeBlock
	for block != volume.NilBlock {
		if uint32(block) >= geom.TotalBlocks || block < geom.FirstDataBlock() {
			problems = multierror.Append(problems, minifs.ErrVolumeCorrupted.WithMessage(
				fmt.Sprintf("free block list points outside the data region: block %d", block)))
			break
		}
		if freeBlocks.Get(int(block)) {
			problems = multierror.Append(problems, minifs.ErrVolumeCorrupted.WithMessage(
				fmt.Sprintf("cycle in free block list at block %d", block)))
			break
		}
		freeBlocks.Set(int(block), true)
		report.FreeBlockListLength++

		next, err := fs.vol.FreeBlockLink(block)
		if err != nil {
			problems = multierror.Append(problems, err)
			break
		}
		block = next
	}
	if report.FreeBlockListLength != sb.FreeBlocks {
		problems = multierror.Append(problems, minifs.ErrVolumeCorrupted.WithMessage(
			fmt.Sprintf("free block list holds %d blocks, superblock says %d",
				report.FreeBlockListLength, sb.FreeBlocks)))
	}

	freeInodes := bitmap.New(int(geom.MaxInodes))
	inum := sb.FirstFreeInode
	for inum != 0 {
		if uint32(inum) >= geom.MaxInodes {
			problems = multierror.Append(problems, minifs.ErrVolumeCorrupted.WithMessage(
				fmt.Sprintf("free inode list points outside the table: inode %d", inum)))
			break
		}
		if freeInodes.Get(int(inum)) {
			problems = multierror.Append(problems, minifs.ErrVolumeCorrupted.WithMessage(
				fmt.Sprintf("cycle in free inode list at inode %d", inum)))
			break
		}
		freeInodes.Set(int(inum), true)
		report.FreeInodeListLength++
		inum = fs.vol.FreeLink(inum)
	}
	if report.FreeInodeListLength != sb.FreeInodes {
		problems = multierror.Append(problems, minifs.ErrVolumeCorrupted.WithMessage(
			fmt.Sprintf("free inode list holds %d inodes, superblock says %d",
				report.FreeInodeListLength, sb.FreeInodes)))
	}

	// Every inode not on the free list is in use; none of its content blocks
	// may also sit on the free block list.
	for i := volume.Inumber(0); uint32(i) < geom.MaxInodes; i++ {
		if freeInodes.Get(int(i)) {
			continue
		}
		inode := fs.vol.ReadInode(i)
		fs.forEachContentBlock(inode, func(_ uint32, b volume.BlockNum) error {
			if uint32(b) < geom.TotalBlocks && freeBlocks.Get(int(b)) {
				problems = multierror.Append(problems, minifs.ErrVolumeCorrupted.WithMessage(
					fmt.Sprintf("block %d is on the free list but referenced by inode %d", b, i)))
			}
			return nil
		})
	}

	report.Err = problems.ErrorOrNil()
	return report
}
