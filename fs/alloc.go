package fs

import (
	"fmt"
	"time"

	"minifs"
	"minifs/volume"
)

// allocateBlock pops the head of the free block list, zero-fills it, and
// returns its number. The superblock's free count and list head are updated
// together so they never disagree.
func (fs *FileSystem) allocateBlock() (volume.BlockNum, error) {
	sb := fs.vol.ReadSuperBlock()
	if sb.FreeBlocks == 0 || sb.FirstFreeBlock == volume.NilBlock {
		return volume.NilBlock, minifs.ErrNoSpaceOnVolume
	}

	head := sb.FirstFreeBlock
	if uint32(head) >= sb.TotalBlocks {
		return volume.NilBlock, minifs.ErrVolumeCorrupted.WithMessage(
			fmt.Sprintf("free block list head %d not in range [0, %d)", head, sb.TotalBlocks))
	}

	next, err := fs.vol.FreeBlockLink(head)
	if err != nil {
		return volume.NilBlock, minifs.ErrVolumeCorrupted.Wrap(err)
	}

	sb.FirstFreeBlock = next
	sb.FreeBlocks--
	fs.vol.WriteSuperBlock(sb)

	// Hand the caller a clean block; the free list link is wiped with the
	// rest of it.
	fs.vol.ZeroBlock(head)
	return head, nil
}

// freeBlock pushes b onto the head of the free block list. Block numbers
// outside the data region are silently ignored, which lets rollback paths
// free "whatever was recorded" without tracking which slots were ever filled.
func (fs *FileSystem) freeBlock(b volume.BlockNum) {
	geom := fs.vol.Geometry()
	if b < geom.FirstDataBlock() || uint32(b) >= geom.TotalBlocks {
		return
	}

	sb := fs.vol.ReadSuperBlock()
	fs.vol.SetFreeBlockLink(b, sb.FirstFreeBlock)
	sb.FirstFreeBlock = b
	sb.FreeBlocks++
	fs.vol.WriteSuperBlock(sb)
}

// allocateInode pops the head of the free inode list and resets the slot to a
// zero-size file record timestamped now.
func (fs *FileSystem) allocateInode() (volume.Inumber, error) {
	sb := fs.vol.ReadSuperBlock()
	if sb.FreeInodes == 0 || sb.FirstFreeInode == 0 {
		return 0, minifs.ErrNoFreeInodes
	}

	inum := sb.FirstFreeInode
	if uint32(inum) >= sb.MaxInodes {
		return 0, minifs.ErrVolumeCorrupted.WithMessage(
			fmt.Sprintf("free inode list head %d not in range [0, %d)", inum, sb.MaxInodes))
	}

	sb.FirstFreeInode = fs.vol.FreeLink(inum)
	sb.FreeInodes--
	fs.vol.WriteSuperBlock(sb)

	now := time.Now()
	fs.vol.WriteInode(inum, volume.Inode{
		Kind:       volume.KindFile,
		CreatedAt:  now,
		ModifiedAt: now,
	})
	return inum, nil
}

// freeInode pushes slot i back onto the free inode list, overwriting its link
// field. The caller must already have released every block the inode
// referenced; the allocator does not cascade. Inode 0 (the root directory)
// and out-of-range numbers are silently ignored.
func (fs *FileSystem) freeInode(i volume.Inumber) {
	if i == volume.RootInumber || uint32(i) >= fs.vol.Geometry().MaxInodes {
		return
	}

	sb := fs.vol.ReadSuperBlock()
	fs.vol.SetFreeLink(i, sb.FirstFreeInode)
	sb.FirstFreeInode = i
	sb.FreeInodes++
	fs.vol.WriteSuperBlock(sb)
}
