package fs

import (
	"errors"

	"minifs/volume"
)

// errStopIteration is returned by forEachContentBlock callbacks to end the
// walk early without reporting an error to the caller.
var errStopIteration = errors.New("stop iteration")

// forEachContentBlock invokes fn once for every mapped content block of
// inode, in logical order: direct pointers 0..9, then each pointer of the
// indirect block. Unmapped slots (value 0) are skipped. The logical index
// passed to fn is the block's position within the inode's content, so byte
// offset = index * block size. Directory scanning, file reading, and copy all
// share this walk.
func (fs *FileSystem) forEachContentBlock(
	inode volume.Inode,
	fn func(logical uint32, physical volume.BlockNum) error,
) error {
	for d := uint32(0); d < volume.DirectBlocks; d++ {
		if inode.Direct[d] == volume.NilBlock {
			continue
		}
		if err := fn(d, inode.Direct[d]); err != nil {
			if err == errStopIteration {
				return nil
			}
			return err
		}
	}

	if inode.Indirect == volume.NilBlock {
		return nil
	}

	indirect, err := fs.vol.Block(inode.Indirect)
	if err != nil {
		return err
	}
	for p := uint32(0); p < fs.vol.Geometry().PointersPerBlock(); p++ {
		ptr := volume.BlockNum(byteOrder.Uint32(indirect[p*4:]))
		if ptr == volume.NilBlock {
			continue
		}
		if err := fn(volume.DirectBlocks+p, ptr); err != nil {
			if err == errStopIteration {
				return nil
			}
			return err
		}
	}
	return nil
}

// releaseContent frees every content block of inode (direct and indirect
// alike), then the indirect block itself, then the inode slot. Used by the
// delete operations and by rollback after a failed entry insertion.
func (fs *FileSystem) releaseContent(inum volume.Inumber, inode volume.Inode) {
	for d := 0; d < volume.DirectBlocks; d++ {
		if inode.Direct[d] != volume.NilBlock {
			fs.freeBlock(inode.Direct[d])
		}
	}

	if inode.Indirect != volume.NilBlock {
		if indirect, err := fs.vol.Block(inode.Indirect); err == nil {
			for p := uint32(0); p < fs.vol.Geometry().PointersPerBlock(); p++ {
				ptr := volume.BlockNum(byteOrder.Uint32(indirect[p*4:]))
				if ptr != volume.NilBlock {
					fs.freeBlock(ptr)
				}
			}
		}
		fs.freeBlock(inode.Indirect)
	}

	fs.freeInode(inum)
}
