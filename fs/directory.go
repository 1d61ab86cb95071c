package fs

import (
	"fmt"
	"time"

	"minifs"
	"minifs/volume"
)

// Entries returns every live entry of the directory at inode dir, in physical
// slot order: all direct blocks first, then every block reachable through the
// indirect block. Tombstoned slots are skipped. A non-directory inode yields
// an empty result rather than an error.
func (fs *FileSystem) Entries(dir volume.Inumber) []DirEntry {
	inode := fs.vol.ReadInode(dir)
	if inode.Kind != volume.KindDirectory {
		return nil
	}

	var entries []DirEntry
	fs.forEachContentBlock(inode, func(_ uint32, b volume.BlockNum) error {
		blk, err := fs.vol.Block(b)
		if err != nil {
			return nil
		}
		for j := uint32(0); j < fs.vol.Geometry().EntriesPerBlock(); j++ {
			if slotIsFree(blk, j) {
				continue
			}
			entries = append(entries, decodeDirEntry(entrySlot(blk, j)))
		}
		return nil
	})
	return entries
}

// findEntry returns the inode number of the first entry named name, in the
// same scan order as Entries.
func (fs *FileSystem) findEntry(dir volume.Inumber, name string) (volume.Inumber, bool) {
	for _, entry := range fs.Entries(dir) {
		if entry.Name == name {
			return entry.Inumber, true
		}
	}
	return 0, false
}

// addEntry writes a (name, target) entry into the first free slot of the
// directory at inode dir, allocating content blocks on demand: direct blocks
// first, then the indirect block and its pointer slots. On success the
// directory's size grows by one entry and its modification time is
// refreshed. Allocation failures propagate as-is; a directory whose direct
// and indirect capacity is exhausted reports ErrDirectoryFull.
func (fs *FileSystem) addEntry(dir volume.Inumber, name string, target volume.Inumber) error {
	if len(name) >= volume.MaxNameLength {
		return minifs.ErrNameTooLong.WithMessage(
			fmt.Sprintf("%q is %d bytes, limit is %d", name, len(name), volume.MaxNameLength-1))
	}

	inode := fs.vol.ReadInode(dir)
	if inode.Kind != volume.KindDirectory {
		return minifs.ErrNotADirectory.WithMessage(fmt.Sprintf("inode %d", dir))
	}

	geom := fs.vol.Geometry()
	entry := DirEntry{Name: name, Inumber: target}

	// Direct blocks first. Tombstoned slots are reused before anything else,
	// so a new block is only allocated once every slot of every earlier block
	// holds a live entry.
	for d := 0; d < volume.DirectBlocks; d++ {
		if inode.Direct[d] == volume.NilBlock {
			b, err := fs.allocateBlock()
			if err != nil {
				return err
			}
			inode.Direct[d] = b
			fs.vol.WriteInode(dir, inode)
		}

		if fs.placeEntry(inode.Direct[d], entry) {
			fs.commitEntryAdd(dir, inode)
			return nil
		}
	}

	// Direct capacity exhausted; fall over to the indirect block.
	if inode.Indirect == volume.NilBlock {
		b, err := fs.allocateBlock()
		if err != nil {
			return err
		}
		inode.Indirect = b
		fs.vol.WriteInode(dir, inode)
	}

	indirect, err := fs.vol.Block(inode.Indirect)
	if err != nil {
		return minifs.ErrVolumeCorrupted.Wrap(err)
	}

	for p := uint32(0); p < geom.PointersPerBlock(); p++ {
		ptr := volume.BlockNum(byteOrder.Uint32(indirect[p*4:]))
		if ptr == volume.NilBlock {
			b, allocErr := fs.allocateBlock()
			if allocErr != nil {
				return allocErr
			}
			byteOrder.PutUint32(indirect[p*4:], uint32(b))
			ptr = b
		}

		if fs.placeEntry(ptr, entry) {
			fs.commitEntryAdd(dir, inode)
			return nil
		}
	}

	return minifs.ErrDirectoryFull.WithMessage(fmt.Sprintf("inode %d", dir))
}

// placeEntry writes entry into the first free slot of block b and reports
// whether a slot was found.
func (fs *FileSystem) placeEntry(b volume.BlockNum, entry DirEntry) bool {
	blk, err := fs.vol.Block(b)
	if err != nil {
		return false
	}
	for j := uint32(0); j < fs.vol.Geometry().EntriesPerBlock(); j++ {
		if !slotIsFree(blk, j) {
			continue
		}
		encodeDirEntry(entrySlot(blk, j), entry)
		return true
	}
	return false
}

// commitEntryAdd records the bookkeeping side of a successful insertion: the
// directory grows by one entry and its modification time is refreshed. The
// passed inode must be the caller's working copy, which may already carry new
// block pointers.
func (fs *FileSystem) commitEntryAdd(dir volume.Inumber, inode volume.Inode) {
	inode.Size += volume.DirEntrySize
	inode.ModifiedAt = time.Now()
	fs.vol.WriteInode(dir, inode)
}

// removeEntry tombstones the first entry named name by zeroing the whole
// slot, name bytes included; a cleared inode number alone would make the
// slot look identical to a live entry pointing at the root. The backing
// block stays allocated to the directory even if every slot in it is now
// free; directory footprints only ever grow until the directory itself is
// removed.
func (fs *FileSystem) removeEntry(dir volume.Inumber, name string) error {
	inode := fs.vol.ReadInode(dir)
	if inode.Kind != volume.KindDirectory {
		return minifs.ErrNotADirectory.WithMessage(fmt.Sprintf("inode %d", dir))
	}

	found := false
	fs.forEachContentBlock(inode, func(_ uint32, b volume.BlockNum) error {
		blk, err := fs.vol.Block(b)
		if err != nil {
			return nil
		}
		for j := uint32(0); j < fs.vol.Geometry().EntriesPerBlock(); j++ {
			if slotIsFree(blk, j) {
				continue
			}
			if decodeDirEntry(entrySlot(blk, j)).Name != name {
				continue
			}
			slot := entrySlot(blk, j)
			for k := range slot {
				slot[k] = 0
			}
			found = true
			return errStopIteration
		}
		return nil
	})

	if !found {
		return minifs.ErrNotFound.WithMessage(name)
	}

	inode.Size -= volume.DirEntrySize
	inode.ModifiedAt = time.Now()
	fs.vol.WriteInode(dir, inode)
	return nil
}

// initDirectory seeds a brand new directory with its two mandatory entries:
// "." pointing at itself and ".." pointing at its parent. The root directory
// is its own parent.
func (fs *FileSystem) initDirectory(dir, parent volume.Inumber) error {
	if err := fs.addEntry(dir, ".", dir); err != nil {
		return err
	}
	return fs.addEntry(dir, "..", parent)
}
