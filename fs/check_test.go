package fs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mt "minifs/testing"
	"minifs/volume"
)

func TestCheckCleanVolume(t *testing.T) {
	filesystem := mt.FormatFS(t, mt.MiniGeometry)
	require.NoError(t, filesystem.MakeDir("d"))
	require.NoError(t, filesystem.CreateFile("d/f", 1000))

	sb := filesystem.Volume().ReadSuperBlock()
	report := filesystem.Check()
	assert.NoError(t, report.Err)
	assert.Equal(t, sb.FreeBlocks, report.FreeBlockListLength)
	assert.Equal(t, sb.FreeInodes, report.FreeInodeListLength)
}

func TestCheckDetectsOutOfBoundsFreeListHead(t *testing.T) {
	filesystem := mt.FormatFS(t, mt.MiniGeometry)
	vol := filesystem.Volume()

	sb := vol.ReadSuperBlock()
	sb.FirstFreeBlock = volume.BlockNum(mt.MiniGeometry.TotalBlocks + 1)
	vol.WriteSuperBlock(sb)

	report := filesystem.Check()
	require.Error(t, report.Err)
	assert.Contains(t, report.Err.Error(), "outside the data region")
	assert.EqualValues(t, 0, report.FreeBlockListLength)
}

func TestCheckDetectsFreeBlockListCycle(t *testing.T) {
	filesystem := mt.FormatFS(t, mt.MiniGeometry)
	vol := filesystem.Volume()

	head := vol.ReadSuperBlock().FirstFreeBlock
	require.NoError(t, vol.SetFreeBlockLink(head, head))

	report := filesystem.Check()
	require.Error(t, report.Err)
	assert.Contains(t, report.Err.Error(), "cycle in free block list")
}

func TestCheckDetectsCountMismatch(t *testing.T) {
	filesystem := mt.FormatFS(t, mt.MiniGeometry)
	vol := filesystem.Volume()

	sb := vol.ReadSuperBlock()
	sb.FreeBlocks++
	sb.FreeInodes++
	vol.WriteSuperBlock(sb)

	report := filesystem.Check()
	require.Error(t, report.Err)
	assert.Contains(t, report.Err.Error(), "free block list holds")
	assert.Contains(t, report.Err.Error(), "free inode list holds")
}

func TestCheckDetectsFreeBlockStillReferenced(t *testing.T) {
	filesystem := mt.FormatFS(t, mt.MiniGeometry)
	require.NoError(t, filesystem.CreateFile("f", 100))
	vol := filesystem.Volume()

	inum, err := filesystem.Resolve("f")
	require.NoError(t, err)
	stolen := vol.ReadInode(inum).Direct[0]
	require.NotEqual(t, volume.NilBlock, stolen)

	// Push the file's block back onto the free list while the inode still
	// references it.
	sb := vol.ReadSuperBlock()
	require.NoError(t, vol.SetFreeBlockLink(stolen, sb.FirstFreeBlock))
	sb.FirstFreeBlock = stolen
	sb.FreeBlocks++
	vol.WriteSuperBlock(sb)

	report := filesystem.Check()
	require.Error(t, report.Err)
	assert.Contains(t, report.Err.Error(), "on the free list but referenced")
}

func TestCheckDetectsFreeInodeListCycle(t *testing.T) {
	filesystem := mt.FormatFS(t, mt.MiniGeometry)
	vol := filesystem.Volume()

	head := vol.ReadSuperBlock().FirstFreeInode
	vol.SetFreeLink(head, head)

	report := filesystem.Check()
	require.Error(t, report.Err)
	assert.Contains(t, report.Err.Error(), "cycle in free inode list")
}
