package volume_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minifs/volume"
)

func newBlankVolume(t *testing.T) *volume.Volume {
	t.Helper()
	vol, err := volume.New(volume.Geometry{BlockSize: 512, TotalBlocks: 128, MaxInodes: 32})
	require.NoError(t, err)
	return vol
}

func TestInodeCodecRoundTrip(t *testing.T) {
	vol := newBlankVolume(t)

	want := volume.Inode{
		Kind:       volume.KindDirectory,
		Size:       4096,
		CreatedAt:  time.Unix(1700000000, 0),
		ModifiedAt: time.Unix(1700000123, 0),
		Indirect:   77,
	}
	for d := range want.Direct {
		want.Direct[d] = volume.BlockNum(10 + d)
	}

	vol.WriteInode(3, want)
	got := vol.ReadInode(3)

	assert.Equal(t, want.Kind, got.Kind)
	assert.Equal(t, want.Size, got.Size)
	assert.Equal(t, want.Direct, got.Direct)
	assert.Equal(t, want.Indirect, got.Indirect)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "creation time survives to second precision")
	assert.True(t, want.ModifiedAt.Equal(got.ModifiedAt), "modification time survives to second precision")
}

func TestInodeZeroTimestamps(t *testing.T) {
	vol := newBlankVolume(t)

	vol.WriteInode(1, volume.Inode{Kind: volume.KindFile, Size: 10})
	got := vol.ReadInode(1)
	assert.True(t, got.CreatedAt.IsZero(), "an unset timestamp stays the zero time")
	assert.True(t, got.ModifiedAt.IsZero())
}

func TestInodeOutOfRange(t *testing.T) {
	vol := newBlankVolume(t)
	before := append([]byte(nil), vol.Bytes()...)

	vol.WriteInode(32, volume.Inode{Kind: volume.KindDirectory, Size: 99})
	assert.Equal(t, before, vol.Bytes(), "an out-of-range write must not touch the image")

	assert.Equal(t, volume.Inode{}, vol.ReadInode(32), "an out-of-range read yields a zeroed record")
	assert.EqualValues(t, 0, vol.FreeLink(32))
}

func TestFreeLinkAliasesIndirectField(t *testing.T) {
	vol := newBlankVolume(t)

	// The free list link and the indirect pointer are the same on-disk word;
	// the slot is either on the free list or in use, never both.
	vol.WriteInode(4, volume.Inode{Indirect: 7})
	assert.EqualValues(t, 7, vol.FreeLink(4))

	vol.SetFreeLink(4, 9)
	assert.EqualValues(t, 9, vol.ReadInode(4).Indirect)
}

func TestSuperBlockCodecRoundTrip(t *testing.T) {
	vol := newBlankVolume(t)

	want := volume.SuperBlock{
		Magic:          volume.Magic,
		BlockSize:      512,
		TotalBlocks:    128,
		FreeBlocks:     100,
		MaxInodes:      32,
		FreeInodes:     30,
		FirstFreeBlock: 28,
		FirstFreeInode: 2,
	}
	vol.WriteSuperBlock(want)
	assert.Equal(t, want, vol.ReadSuperBlock())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "file", volume.KindFile.String())
	assert.Equal(t, "directory", volume.KindDirectory.String())
	assert.Equal(t, "unknown", volume.Kind(7).String())
}
