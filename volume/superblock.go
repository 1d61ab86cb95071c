package volume

import (
	"encoding/binary"

	"github.com/noxer/bytewriter"
)

var byteOrder = binary.LittleEndian

// superBlockSize is the encoded size of the superblock record at the start of
// block 0. The rest of the block is unused.
const superBlockSize = 32

// SuperBlock is the decoded view of block 0. FreeBlocks and FreeInodes must
// equal the true lengths of their free lists at all times; the fs package's
// allocators maintain that invariant.
type SuperBlock struct {
	Magic          uint32
	BlockSize      uint32
	TotalBlocks    uint32
	FreeBlocks     uint32
	MaxInodes      uint32
	FreeInodes     uint32
	FirstFreeBlock BlockNum
	FirstFreeInode Inumber
}

func decodeSuperBlock(raw []byte) SuperBlock {
	return SuperBlock{
		Magic:          byteOrder.Uint32(raw[0:4]),
		BlockSize:      byteOrder.Uint32(raw[4:8]),
		TotalBlocks:    byteOrder.Uint32(raw[8:12]),
		FreeBlocks:     byteOrder.Uint32(raw[12:16]),
		MaxInodes:      byteOrder.Uint32(raw[16:20]),
		FreeInodes:     byteOrder.Uint32(raw[20:24]),
		FirstFreeBlock: BlockNum(byteOrder.Uint32(raw[24:28])),
		FirstFreeInode: Inumber(byteOrder.Uint32(raw[28:32])),
	}
}

// ReadSuperBlock decodes the superblock from block 0.
func (vol *Volume) ReadSuperBlock() SuperBlock {
	return decodeSuperBlock(vol.data[:superBlockSize])
}

// WriteSuperBlock encodes sb into block 0, overwriting the previous record.
func (vol *Volume) WriteSuperBlock(sb SuperBlock) {
	writer := bytewriter.New(vol.data[:superBlockSize])
	binary.Write(writer, byteOrder, &sb)
}
