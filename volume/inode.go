package volume

import (
	"encoding/binary"
	"time"

	"github.com/noxer/bytewriter"
)

// Kind discriminates the two inode record types.
type Kind uint32

const (
	KindFile      Kind = 0
	KindDirectory Kind = 1
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	}
	return "unknown"
}

// Inode is the decoded view of one in-use inode record. A free inode slot has
// no meaningful Inode view at all: while a slot sits on the free inode list,
// the byte range of its Indirect field holds the next-free link instead, and
// only FreeLink/SetFreeLink may touch it. Keeping the two interpretations
// behind separate accessors is what stops them being confused.
type Inode struct {
	Kind       Kind
	Size       uint32
	CreatedAt  time.Time
	ModifiedAt time.Time
	Direct     [DirectBlocks]BlockNum
	Indirect   BlockNum
}

// rawInode is the fixed 64-byte on-disk layout, little-endian. Timestamps are
// stored as 32-bit Unix seconds.
type rawInode struct {
	Kind     uint32
	Size     uint32
	Ctime    uint32
	Mtime    uint32
	Direct   [DirectBlocks]uint32
	Indirect uint32
	Reserved uint32
}

// freeLinkOffset is the byte offset of the Indirect field inside a record,
// which doubles as the next-free-inode link while the slot is free.
const freeLinkOffset = 56

// inodeOffset returns the byte offset of inode i's record. The inode table
// starts at block 1.
func (vol *Volume) inodeOffset(i Inumber) uint32 {
	return vol.geom.BlockSize + uint32(i)*InodeSize
}

// ReadInode decodes inode i. An out-of-range number yields a zeroed record
// rather than an error, which keeps callers simple; zeroed records have kind
// file, size 0, and no blocks.
func (vol *Volume) ReadInode(i Inumber) Inode {
	if uint32(i) >= vol.geom.MaxInodes {
		return Inode{}
	}

	off := vol.inodeOffset(i)
	raw := rawInode{
		Kind:     byteOrder.Uint32(vol.data[off : off+4]),
		Size:     byteOrder.Uint32(vol.data[off+4 : off+8]),
		Ctime:    byteOrder.Uint32(vol.data[off+8 : off+12]),
		Mtime:    byteOrder.Uint32(vol.data[off+12 : off+16]),
		Indirect: byteOrder.Uint32(vol.data[off+freeLinkOffset : off+freeLinkOffset+4]),
	}
	for d := 0; d < DirectBlocks; d++ {
		raw.Direct[d] = byteOrder.Uint32(vol.data[off+16+uint32(d)*4:])
	}

	inode := Inode{
		Kind:     Kind(raw.Kind),
		Size:     raw.Size,
		Indirect: BlockNum(raw.Indirect),
	}
	if raw.Ctime != 0 {
		inode.CreatedAt = time.Unix(int64(raw.Ctime), 0)
	}
	if raw.Mtime != 0 {
		inode.ModifiedAt = time.Unix(int64(raw.Mtime), 0)
	}
	for d := 0; d < DirectBlocks; d++ {
		inode.Direct[d] = BlockNum(raw.Direct[d])
	}
	return inode
}

// WriteInode encodes inode into slot i, overwriting the record in place. An
// out-of-range number is a no-op. Refreshing the modification time on content
// changes is the caller's responsibility.
func (vol *Volume) WriteInode(i Inumber, inode Inode) {
	if uint32(i) >= vol.geom.MaxInodes {
		return
	}

	raw := rawInode{
		Kind:     uint32(inode.Kind),
		Size:     inode.Size,
		Ctime:    serializeTimestamp(inode.CreatedAt),
		Mtime:    serializeTimestamp(inode.ModifiedAt),
		Indirect: uint32(inode.Indirect),
	}
	for d := 0; d < DirectBlocks; d++ {
		raw.Direct[d] = uint32(inode.Direct[d])
	}

	off := vol.inodeOffset(i)
	writer := bytewriter.New(vol.data[off : off+InodeSize])
	binary.Write(writer, byteOrder, &raw)
}

// FreeLink reads the next-free-inode link from slot i. Only meaningful while
// the slot is on the free inode list.
func (vol *Volume) FreeLink(i Inumber) Inumber {
	if uint32(i) >= vol.geom.MaxInodes {
		return 0
	}
	off := vol.inodeOffset(i) + freeLinkOffset
	return Inumber(byteOrder.Uint32(vol.data[off : off+4]))
}

// SetFreeLink stores the next-free-inode link into slot i, clobbering the
// Indirect field of whatever record was there.
func (vol *Volume) SetFreeLink(i, next Inumber) {
	if uint32(i) >= vol.geom.MaxInodes {
		return
	}
	off := vol.inodeOffset(i) + freeLinkOffset
	byteOrder.PutUint32(vol.data[off:off+4], uint32(next))
}

func serializeTimestamp(t time.Time) uint32 {
	if t.IsZero() {
		return 0
	}
	return uint32(t.Unix())
}
