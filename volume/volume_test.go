package volume_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"minifs"
	"minifs/volume"
)

func TestGeometryDerivedValues(t *testing.T) {
	geom := volume.DefaultGeometry

	assert.EqualValues(t, 8, geom.InodeBlocks(), "128 x 64B inodes need 8 x 1024B blocks")
	assert.EqualValues(t, 9, geom.FirstDataBlock(), "data region starts after superblock and inode table")
	assert.EqualValues(t, 256, geom.PointersPerBlock())
	assert.EqualValues(t, 32, geom.EntriesPerBlock())
	assert.EqualValues(t, 266, geom.MaxFileBlocks(), "10 direct plus 256 indirect pointers")
	assert.EqualValues(t, 266*1024, geom.MaxFileSize())
	assert.EqualValues(t, 1<<20, geom.Size(), "canonical volume is exactly 1 MiB")

	assert.EqualValues(t, 0, geom.BlocksFor(0))
	assert.EqualValues(t, 1, geom.BlocksFor(1))
	assert.EqualValues(t, 1, geom.BlocksFor(1024))
	assert.EqualValues(t, 2, geom.BlocksFor(1025))
	assert.EqualValues(t, 1<<22, geom.BlocksFor(^uint32(0)),
		"the ceiling must not wrap for sizes near 4 GiB")
}

func TestGeometryValidate(t *testing.T) {
	assert.NoError(t, volume.DefaultGeometry.Validate())

	bad := volume.Geometry{BlockSize: 30, TotalBlocks: 1024, MaxInodes: 128}
	assert.ErrorIs(t, bad.Validate(), minifs.ErrInvalidArgument, "block size must be a multiple of 4")

	bad = volume.Geometry{BlockSize: 16, TotalBlocks: 1024, MaxInodes: 128}
	assert.ErrorIs(t, bad.Validate(), minifs.ErrInvalidArgument, "block size must hold at least one entry")

	bad = volume.Geometry{BlockSize: 1024, TotalBlocks: 1024, MaxInodes: 1}
	assert.ErrorIs(t, bad.Validate(), minifs.ErrInvalidArgument, "need the root inode plus at least one more")

	bad = volume.Geometry{BlockSize: 1024, TotalBlocks: 9, MaxInodes: 128}
	assert.ErrorIs(t, bad.Validate(), minifs.ErrInvalidArgument, "all blocks consumed by metadata")
}

func TestFormatInitializesSuperBlock(t *testing.T) {
	vol, err := volume.Format(volume.DefaultGeometry)
	require.NoError(t, err)

	sb := vol.ReadSuperBlock()
	assert.Equal(t, volume.Magic, sb.Magic)
	assert.EqualValues(t, 1024, sb.BlockSize)
	assert.EqualValues(t, 1024, sb.TotalBlocks)
	assert.EqualValues(t, 1015, sb.FreeBlocks, "every block past the metadata region starts free")
	assert.EqualValues(t, 128, sb.MaxInodes)
	assert.EqualValues(t, 127, sb.FreeInodes, "every inode but the root starts free")
	assert.EqualValues(t, 9, sb.FirstFreeBlock)
	assert.EqualValues(t, 1, sb.FirstFreeInode)
}

func TestFormatThreadsFreeLists(t *testing.T) {
	vol, err := volume.Format(volume.DefaultGeometry)
	require.NoError(t, err)
	sb := vol.ReadSuperBlock()

	// The free block list runs through every data block in ascending order
	// and terminates with the null sentinel.
	count := uint32(0)
	prev := volume.NilBlock
	for b := sb.FirstFreeBlock; b != volume.NilBlock; {
		if prev != volume.NilBlock {
			assert.Equal(t, prev+1, b, "formatted free blocks are threaded in ascending order")
		}
		prev = b
		count++

		next, err := vol.FreeBlockLink(b)
		require.NoError(t, err)
		b = next
	}
	assert.Equal(t, sb.FreeBlocks, count, "free list length must match the superblock count")

	inodes := uint32(0)
	for i := sb.FirstFreeInode; i != 0; i = vol.FreeLink(i) {
		inodes++
	}
	assert.Equal(t, sb.FreeInodes, inodes, "free inode list length must match the superblock count")
}

func TestBlockAccess(t *testing.T) {
	vol, err := volume.New(volume.Geometry{BlockSize: 512, TotalBlocks: 128, MaxInodes: 32})
	require.NoError(t, err)

	blk, err := vol.Block(5)
	require.NoError(t, err)
	assert.Len(t, blk, 512)

	_, err = vol.Block(128)
	assert.ErrorIs(t, err, minifs.ErrInvalidArgument, "block numbers are bounded by the geometry")

	blk[0] = 0xAA
	blk[511] = 0xBB
	require.NoError(t, vol.ZeroBlock(5))
	assert.Equal(t, make([]byte, 512), blk, "ZeroBlock clears every byte")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	vol, err := volume.Format(volume.DefaultGeometry)
	require.NoError(t, err)

	image := bytesextra.NewReadWriteSeeker(make([]byte, volume.DefaultGeometry.Size()))
	n, err := vol.WriteTo(image)
	require.NoError(t, err)
	assert.Equal(t, volume.DefaultGeometry.Size(), n)

	reloaded, err := volume.LoadImage(image)
	require.NoError(t, err)
	assert.Equal(t, volume.DefaultGeometry, reloaded.Geometry(), "geometry is recovered from the superblock")
	assert.Equal(t, vol.Bytes(), reloaded.Bytes(), "images must round-trip byte for byte")
}

func TestLoadRejectsBadMagic(t *testing.T) {
	vol, err := volume.Format(volume.DefaultGeometry)
	require.NoError(t, err)

	raw := append([]byte(nil), vol.Bytes()...)
	raw[0] ^= 0xFF

	_, err = volume.Load(bytes.NewReader(raw))
	assert.ErrorIs(t, err, minifs.ErrInvalidVolume)
}

func TestLoadRejectsShortImage(t *testing.T) {
	_, err := volume.Load(bytes.NewReader(make([]byte, 16)))
	assert.ErrorIs(t, err, minifs.ErrInvalidVolume, "image shorter than a superblock")

	_, err = volume.LoadImage(bytesextra.NewReadWriteSeeker(make([]byte, 16)))
	assert.ErrorIs(t, err, minifs.ErrInvalidVolume)
}

func TestLoadRejectsSizeMismatch(t *testing.T) {
	vol, err := volume.Format(volume.DefaultGeometry)
	require.NoError(t, err)

	// Valid superblock, but the image stops halfway through the volume it
	// describes.
	raw := append([]byte(nil), vol.Bytes()[:vol.Geometry().Size()/2]...)
	_, err = volume.Load(bytes.NewReader(raw))
	assert.ErrorIs(t, err, minifs.ErrInvalidVolume)
}

func TestFreeBlockLinkRoundTrip(t *testing.T) {
	vol, err := volume.New(volume.Geometry{BlockSize: 512, TotalBlocks: 128, MaxInodes: 32})
	require.NoError(t, err)

	require.NoError(t, vol.SetFreeBlockLink(10, 42))
	next, err := vol.FreeBlockLink(10)
	require.NoError(t, err)
	assert.EqualValues(t, 42, next)

	assert.Error(t, vol.SetFreeBlockLink(128, 1), "links are bounds-checked like any block access")
}
