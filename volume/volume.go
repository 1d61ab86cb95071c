package volume

import (
	"fmt"
	"io"

	"minifs"
)

// Volume is the in-memory image of a simulated file system: one flat byte
// buffer plus the geometry needed to carve it into blocks. It is plain
// mutable state with no locking; callers serialize access.
type Volume struct {
	geom Geometry
	data []byte
}

// New returns a zero-filled, unformatted volume of the given geometry.
func New(geom Geometry) (*Volume, error) {
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	return &Volume{
		geom: geom,
		data: make([]byte, geom.Size()),
	}, nil
}

// Format returns a fresh volume with an initialized superblock and with every
// data block and every inode except the root threaded onto the free lists.
// The root directory inode itself is left for the caller to build; a freshly
// formatted volume has no reachable objects yet.
func Format(geom Geometry) (*Volume, error) {
	vol, err := New(geom)
	if err != nil {
		return nil, err
	}

	firstData := geom.FirstDataBlock()

	// Thread the free block list through the first word of each free block.
	// The buffer is zeroed, so the last block already terminates the list.
	for b := firstData; b < BlockNum(geom.TotalBlocks-1); b++ {
		vol.SetFreeBlockLink(b, b+1)
	}
	vol.SetFreeBlockLink(BlockNum(geom.TotalBlocks-1), NilBlock)

	// Thread the free inode list through the reused link field of each free
	// inode. Inode 0 is reserved for the root directory and stays off the
	// list forever.
	for i := Inumber(1); i < Inumber(geom.MaxInodes-1); i++ {
		vol.SetFreeLink(i, i+1)
	}
	vol.SetFreeLink(Inumber(geom.MaxInodes-1), 0)

	vol.WriteSuperBlock(SuperBlock{
		Magic:          Magic,
		BlockSize:      geom.BlockSize,
		TotalBlocks:    geom.TotalBlocks,
		FreeBlocks:     geom.TotalBlocks - uint32(firstData),
		MaxInodes:      geom.MaxInodes,
		FreeInodes:     geom.MaxInodes - 1,
		FirstFreeBlock: firstData,
		FirstFreeInode: 1,
	})
	return vol, nil
}

// Geometry returns the volume's geometry.
func (vol *Volume) Geometry() Geometry {
	return vol.geom
}

// Bytes returns the backing buffer of the whole image. The slice aliases the
// volume; it is not a copy.
func (vol *Volume) Bytes() []byte {
	return vol.data
}

// Block returns the byte slice backing block b. The slice aliases the volume.
func (vol *Volume) Block(b BlockNum) ([]byte, error) {
	if uint32(b) >= vol.geom.TotalBlocks {
		return nil, minifs.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("block %d not in range [0, %d)", b, vol.geom.TotalBlocks))
	}
	start := uint32(b) * vol.geom.BlockSize
	return vol.data[start : start+vol.geom.BlockSize], nil
}

// ZeroBlock clears every byte of block b.
func (vol *Volume) ZeroBlock(b BlockNum) error {
	blk, err := vol.Block(b)
	if err != nil {
		return err
	}
	for i := range blk {
		blk[i] = 0
	}
	return nil
}

// WriteTo serializes the whole image to w, byte for byte. It implements
// io.WriterTo.
func (vol *Volume) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(vol.data)
	return int64(n), err
}

// Load reads a complete volume image from r. The geometry is recovered from
// the superblock, which must carry the expected magic tag; a short or
// oversized image is rejected with ErrInvalidVolume.
func Load(r io.Reader) (*Volume, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, minifs.ErrInvalidVolume.Wrap(err)
	}
	if len(raw) < superBlockSize {
		return nil, minifs.ErrInvalidVolume.WithMessage(
			fmt.Sprintf("image is %d bytes, too short for a superblock", len(raw)))
	}

	sb := decodeSuperBlock(raw)
	if sb.Magic != Magic {
		return nil, minifs.ErrInvalidVolume.WithMessage(
			fmt.Sprintf("bad magic tag 0x%08x, want 0x%08x", sb.Magic, Magic))
	}

	geom := Geometry{
		BlockSize:   sb.BlockSize,
		TotalBlocks: sb.TotalBlocks,
		MaxInodes:   sb.MaxInodes,
	}
	if err := geom.Validate(); err != nil {
		return nil, minifs.ErrInvalidVolume.Wrap(err)
	}
	if int64(len(raw)) != geom.Size() {
		return nil, minifs.ErrInvalidVolume.WithMessage(
			fmt.Sprintf("image is %d bytes, superblock describes %d", len(raw), geom.Size()))
	}

	return &Volume{geom: geom, data: raw}, nil
}

// LoadImage is Load for seekable sources; it verifies the stream length
// before reading so a truncated image fails fast.
func LoadImage(rs io.ReadSeeker) (*Volume, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, minifs.ErrInvalidVolume.Wrap(err)
	}
	if size < int64(superBlockSize) {
		return nil, minifs.ErrInvalidVolume.WithMessage(
			fmt.Sprintf("image is %d bytes, too short for a superblock", size))
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, minifs.ErrInvalidVolume.Wrap(err)
	}
	return Load(rs)
}

// FreeBlockLink reads the block number of the next free block from the first
// word of block b. Only meaningful while b is on the free list; reading a
// free block as data is always a bug.
func (vol *Volume) FreeBlockLink(b BlockNum) (BlockNum, error) {
	blk, err := vol.Block(b)
	if err != nil {
		return NilBlock, err
	}
	return BlockNum(byteOrder.Uint32(blk[:4])), nil
}

// SetFreeBlockLink stores the next-free link in block b.
func (vol *Volume) SetFreeBlockLink(b, next BlockNum) error {
	blk, err := vol.Block(b)
	if err != nil {
		return err
	}
	byteOrder.PutUint32(blk[:4], uint32(next))
	return nil
}
