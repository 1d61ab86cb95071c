package fs

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"minifs"
	"minifs/volume"
)

// EntryInfo is one row of a directory listing: the entry itself plus the
// metadata of the inode it references.
type EntryInfo struct {
	Name       string
	Inumber    volume.Inumber
	Kind       volume.Kind
	Size       uint32
	ModifiedAt time.Time
}

// CreateFile creates a file of the given size at path. The content blocks
// are allocated and zero-filled but nothing is written into them; WriteFile
// fills them in later. The operation is all-or-nothing: any failure after the
// first allocation releases everything allocated so far before returning, and
// the parent directory entry is only inserted once the file is fully built.
func (fs *FileSystem) CreateFile(path string, size uint32) error {
	parent, name, err := fs.splitParentAndName(path)
	if err != nil {
		return err
	}
	if _, exists := fs.findEntry(parent, name); exists {
		return minifs.ErrExists.WithMessage(name)
	}

	geom := fs.vol.Geometry()
	blocksNeeded := geom.BlocksFor(size)
	if blocksNeeded > geom.MaxFileBlocks() {
		return minifs.ErrFileTooLarge.WithMessage(fmt.Sprintf(
			"%d bytes needs %d blocks, limit is %d blocks (%d bytes)",
			size, blocksNeeded, geom.MaxFileBlocks(), geom.MaxFileSize()))
	}

	// Optimistic capacity check; allocation below still validates every step.
	indirectNeeded := uint32(0)
	if blocksNeeded > volume.DirectBlocks {
		indirectNeeded = 1
	}
	sb := fs.vol.ReadSuperBlock()
	if sb.FreeBlocks < blocksNeeded+indirectNeeded {
		return minifs.ErrNoSpaceOnVolume.WithMessage(fmt.Sprintf(
			"need %d blocks, have %d", blocksNeeded+indirectNeeded, sb.FreeBlocks))
	}

	inum, err := fs.allocateInode()
	if err != nil {
		return err
	}

	inode := fs.vol.ReadInode(inum)
	inode.Size = size

	if err := fs.allocateContent(&inode, blocksNeeded, nil); err != nil {
		fs.releaseContent(inum, inode)
		return minifs.ErrAllocationFailed.Wrap(err)
	}

	fs.vol.WriteInode(inum, inode)

	// Insertion comes last so a reachable name never points at a partially
	// built object.
	if err := fs.addEntry(parent, name, inum); err != nil {
		fs.releaseContent(inum, inode)
		return err
	}
	return nil
}

// allocateContent fills inode's direct pointers, and the indirect block and
// its pointers when needed, with blocksNeeded freshly allocated blocks. When
// src is non-nil the corresponding content bytes of src are copied into each
// new block; indirect pointer slots src leaves unmapped stay unmapped in the
// copy. On failure the pointers recorded so far are left in inode for the
// caller to release.
func (fs *FileSystem) allocateContent(
	inode *volume.Inode, blocksNeeded uint32, src *volume.Inode,
) error {
	directCount := blocksNeeded
	if directCount > volume.DirectBlocks {
		directCount = volume.DirectBlocks
	}

	for d := uint32(0); d < directCount; d++ {
		b, err := fs.allocateBlock()
		if err != nil {
			return err
		}
		inode.Direct[d] = b
		if src != nil && src.Direct[d] != volume.NilBlock {
			fs.copyBlock(src.Direct[d], b)
		}
	}

	if blocksNeeded <= volume.DirectBlocks {
		return nil
	}

	indirect, err := fs.allocateBlock()
	if err != nil {
		return err
	}
	inode.Indirect = indirect

	var srcPointers []byte
	if src != nil {
		if src.Indirect == volume.NilBlock {
			return nil
		}
		srcPointers, err = fs.vol.Block(src.Indirect)
		if err != nil {
			return err
		}
	}

	pointers, err := fs.vol.Block(indirect)
	if err != nil {
		return err
	}
	for p := uint32(0); p < blocksNeeded-volume.DirectBlocks; p++ {
		var srcBlock volume.BlockNum
		if src != nil {
			srcBlock = volume.BlockNum(byteOrder.Uint32(srcPointers[p*4:]))
			if srcBlock == volume.NilBlock {
				continue
			}
		}
		b, err := fs.allocateBlock()
		if err != nil {
			return err
		}
		byteOrder.PutUint32(pointers[p*4:], uint32(b))
		if src != nil {
			fs.copyBlock(srcBlock, b)
		}
	}
	return nil
}

func (fs *FileSystem) copyBlock(from, to volume.BlockNum) {
	srcBlk, err := fs.vol.Block(from)
	if err != nil {
		return
	}
	dstBlk, err := fs.vol.Block(to)
	if err != nil {
		return
	}
	copy(dstBlk, srcBlk)
}

// RemoveFile deletes the file at path: the parent's entry is tombstoned
// first, then every content block, the indirect block, and the inode are
// freed. If entry removal fails nothing is freed.
func (fs *FileSystem) RemoveFile(path string) error {
	parent, name, err := fs.splitParentAndName(path)
	if err != nil {
		return err
	}
	target, ok := fs.findEntry(parent, name)
	if !ok {
		return minifs.ErrNotFound.WithMessage(name)
	}

	inode := fs.vol.ReadInode(target)
	if inode.Kind != volume.KindFile {
		return minifs.ErrNotAFile.WithMessage(name)
	}

	if err := fs.removeEntry(parent, name); err != nil {
		return err
	}
	fs.releaseContent(target, inode)
	return nil
}

// MakeDir creates an empty directory at path, seeded with its "." and ".."
// entries, with the same rollback discipline as CreateFile.
func (fs *FileSystem) MakeDir(path string) error {
	parent, name, err := fs.splitParentAndName(path)
	if err != nil {
		return err
	}
	if _, exists := fs.findEntry(parent, name); exists {
		return minifs.ErrExists.WithMessage(name)
	}

	sb := fs.vol.ReadSuperBlock()
	if sb.FreeBlocks < 1 {
		return minifs.ErrNoSpaceOnVolume
	}

	inum, err := fs.allocateInode()
	if err != nil {
		return err
	}

	inode := fs.vol.ReadInode(inum)
	inode.Kind = volume.KindDirectory

	block, err := fs.allocateBlock()
	if err != nil {
		fs.freeInode(inum)
		return err
	}
	inode.Direct[0] = block
	fs.vol.WriteInode(inum, inode)

	if err := fs.initDirectory(inum, parent); err != nil {
		fs.releaseContent(inum, fs.vol.ReadInode(inum))
		return err
	}

	if err := fs.addEntry(parent, name, inum); err != nil {
		fs.releaseContent(inum, fs.vol.ReadInode(inum))
		return err
	}
	return nil
}

// RemoveDir deletes the directory at path. Only directories holding nothing
// beyond their two mandatory entries can be removed.
func (fs *FileSystem) RemoveDir(path string) error {
	parent, name, err := fs.splitParentAndName(path)
	if err != nil {
		return err
	}
	// Removing a directory through its own "." or ".." entry would tombstone
	// the convention entry while the real parent entry kept pointing at freed
	// storage.
	if name == "." || name == ".." {
		return minifs.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("cannot remove %q", name))
	}
	target, ok := fs.findEntry(parent, name)
	if !ok {
		return minifs.ErrNotFound.WithMessage(name)
	}
	// The root directory must never become removable, whatever entry
	// happens to point at it.
	if target == volume.RootInumber {
		return minifs.ErrInvalidArgument.WithMessage("cannot remove the root directory")
	}

	inode := fs.vol.ReadInode(target)
	if inode.Kind != volume.KindDirectory {
		return minifs.ErrNotADirectory.WithMessage(name)
	}
	if len(fs.Entries(target)) > 2 {
		return minifs.ErrDirectoryNotEmpty.WithMessage(name)
	}

	if err := fs.removeEntry(parent, name); err != nil {
		return err
	}
	fs.releaseContent(target, inode)
	return nil
}

// ChangeDir moves the session to the directory at path and renormalizes the
// cached path string textually. An empty path is a no-op.
func (fs *FileSystem) ChangeDir(path string) error {
	if path == "" {
		return nil
	}

	target, err := fs.Resolve(path)
	if err != nil {
		return minifs.ErrInvalidPath.WithMessage(path)
	}
	if fs.vol.ReadInode(target).Kind != volume.KindDirectory {
		return minifs.ErrNotADirectory.WithMessage(path)
	}

	fs.cwd = target
	if strings.HasPrefix(path, "/") {
		fs.cwdPath = path
	} else if fs.cwdPath == "/" {
		fs.cwdPath += path
	} else {
		fs.cwdPath += "/" + path
	}
	fs.cwdPath = normalizePath(fs.cwdPath)
	return nil
}

// ListDir returns the live entries of the directory at path (the current
// directory when path is empty), in physical slot order, each annotated with
// its inode's metadata. Callers wanting name order sort the result.
func (fs *FileSystem) ListDir(path string) ([]EntryInfo, error) {
	target := fs.cwd
	if path != "" {
		var err error
		target, err = fs.Resolve(path)
		if err != nil {
			return nil, minifs.ErrInvalidPath.WithMessage(path)
		}
	}
	if fs.vol.ReadInode(target).Kind != volume.KindDirectory {
		return nil, minifs.ErrNotADirectory.WithMessage(path)
	}

	entries := fs.Entries(target)
	infos := make([]EntryInfo, 0, len(entries))
	for _, entry := range entries {
		inode := fs.vol.ReadInode(entry.Inumber)
		infos = append(infos, EntryInfo{
			Name:       entry.Name,
			Inumber:    entry.Inumber,
			Kind:       inode.Kind,
			Size:       inode.Size,
			ModifiedAt: inode.ModifiedAt,
		})
	}
	return infos, nil
}

// SortEntriesByName orders a listing lexicographically in place.
func SortEntriesByName(entries []EntryInfo) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
}

// ReadFile returns the full content of the file at path: exactly Size bytes.
// Logical blocks with no mapped physical block read as zeros.
func (fs *FileSystem) ReadFile(path string) ([]byte, error) {
	target, err := fs.Resolve(path)
	if err != nil {
		return nil, err
	}
	inode := fs.vol.ReadInode(target)
	if inode.Kind != volume.KindFile {
		return nil, minifs.ErrNotAFile.WithMessage(path)
	}

	blockSize := fs.vol.Geometry().BlockSize
	content := make([]byte, inode.Size)
	fs.forEachContentBlock(inode, func(logical uint32, physical volume.BlockNum) error {
		offset := logical * blockSize
		if offset >= inode.Size {
			return nil
		}
		blk, err := fs.vol.Block(physical)
		if err != nil {
			return nil
		}
		copy(content[offset:], blk)
		return nil
	})
	return content, nil
}

// WriteFile overwrites the leading len(data) bytes of the file at path. The
// file's size and block footprint are fixed at creation; data longer than the
// file is rejected rather than grown.
func (fs *FileSystem) WriteFile(path string, data []byte) error {
	target, err := fs.Resolve(path)
	if err != nil {
		return err
	}
	inode := fs.vol.ReadInode(target)
	if inode.Kind != volume.KindFile {
		return minifs.ErrNotAFile.WithMessage(path)
	}
	if uint32(len(data)) > inode.Size {
		return minifs.ErrFileTooLarge.WithMessage(fmt.Sprintf(
			"%d bytes into a %d byte file", len(data), inode.Size))
	}

	blockSize := fs.vol.Geometry().BlockSize
	fs.forEachContentBlock(inode, func(logical uint32, physical volume.BlockNum) error {
		offset := logical * blockSize
		if offset >= uint32(len(data)) {
			return nil
		}
		blk, err := fs.vol.Block(physical)
		if err != nil {
			return nil
		}
		copy(blk, data[offset:])
		return nil
	})

	inode.ModifiedAt = time.Now()
	fs.vol.WriteInode(target, inode)
	return nil
}

// Copy duplicates the file at src as a new file at dst, copying every content
// block byte for byte onto freshly allocated blocks. The same rollback
// discipline as CreateFile applies.
func (fs *FileSystem) Copy(src, dst string) error {
	srcInum, err := fs.Resolve(src)
	if err != nil {
		return err
	}
	srcInode := fs.vol.ReadInode(srcInum)
	if srcInode.Kind != volume.KindFile {
		return minifs.ErrNotAFile.WithMessage(src)
	}

	parent, name, err := fs.splitParentAndName(dst)
	if err != nil {
		return err
	}
	if _, exists := fs.findEntry(parent, name); exists {
		return minifs.ErrExists.WithMessage(name)
	}

	geom := fs.vol.Geometry()
	blocksNeeded := geom.BlocksFor(srcInode.Size)
	indirectNeeded := uint32(0)
	if blocksNeeded > volume.DirectBlocks {
		indirectNeeded = 1
	}
	sb := fs.vol.ReadSuperBlock()
	if sb.FreeBlocks < blocksNeeded+indirectNeeded {
		return minifs.ErrNoSpaceOnVolume.WithMessage(fmt.Sprintf(
			"need %d blocks, have %d", blocksNeeded+indirectNeeded, sb.FreeBlocks))
	}

	dstInum, err := fs.allocateInode()
	if err != nil {
		return err
	}

	dstInode := fs.vol.ReadInode(dstInum)
	dstInode.Size = srcInode.Size

	if err := fs.allocateContent(&dstInode, blocksNeeded, &srcInode); err != nil {
		fs.releaseContent(dstInum, dstInode)
		return minifs.ErrAllocationFailed.Wrap(err)
	}

	fs.vol.WriteInode(dstInum, dstInode)

	if err := fs.addEntry(parent, name, dstInum); err != nil {
		fs.releaseContent(dstInum, dstInode)
		return err
	}
	return nil
}
