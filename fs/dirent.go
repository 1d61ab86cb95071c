package fs

import (
	"bytes"
	"encoding/binary"

	"minifs/volume"
)

var byteOrder = binary.LittleEndian

// DirEntry is one live name -> inode mapping inside a directory's content
// blocks. On disk an entry occupies volume.DirEntrySize bytes: a NUL-padded
// name followed by the inode number. A fully zeroed slot is free (never used,
// or tombstoned by a removal); a zero inode number alone is not enough to
// mark a slot free, because live entries may legitimately point at inode 0:
// the root's own dot entries and the ".." of every directory under the root.
type DirEntry struct {
	Name    string
	Inumber volume.Inumber
}

func decodeDirEntry(raw []byte) DirEntry {
	name := raw[:volume.MaxNameLength]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return DirEntry{
		Name:    string(name),
		Inumber: volume.Inumber(byteOrder.Uint32(raw[volume.MaxNameLength:])),
	}
}

func encodeDirEntry(raw []byte, entry DirEntry) {
	var name [volume.MaxNameLength]byte
	copy(name[:], entry.Name)
	copy(raw[:volume.MaxNameLength], name[:])
	byteOrder.PutUint32(raw[volume.MaxNameLength:], uint32(entry.Inumber))
}

// entrySlot returns the bytes of slot j inside a directory content block.
func entrySlot(blk []byte, j uint32) []byte {
	return blk[j*volume.DirEntrySize : (j+1)*volume.DirEntrySize]
}

// slotIsFree reports whether slot j holds no entry. Names are NUL-padded and
// never empty, so checking the first name byte along with the inode number
// keeps root-targeted entries out of the free set.
func slotIsFree(blk []byte, j uint32) bool {
	off := j * volume.DirEntrySize
	return blk[off] == 0 &&
		byteOrder.Uint32(blk[off+volume.MaxNameLength:]) == 0
}
