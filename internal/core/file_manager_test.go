package core

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/johanneslatzel/storm/buffer"
	"github.com/johanneslatzel/storm/storeconfig"
)

func TestFileManagerInitializeCreatesFilesAndSeedsIDCounter(t *testing.T) {
	dir, err := os.MkdirTemp("", "storm_filemanager_test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	cfg, err := storeconfig.New("test", dir)
	require.NoError(t, err)

	fm := NewFileManager(cfg)
	live, err := fm.Initialize(buffer.New(64))
	require.NoError(t, err)
	require.Empty(t, live)

	id, err := fm.CreateNewStoreCacheEntryDescription(DataRange{Offset: 0, Length: 4})
	require.NoError(t, err)
	require.Equal(t, StoreID(1), id.ID)

	require.NoError(t, fm.Close())
}

func TestFileManagerWriteAndClearDescriptionRoundTrip(t *testing.T) {
	dir, err := os.MkdirTemp("", "storm_filemanager_test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	cfg, err := storeconfig.New("test", dir)
	require.NoError(t, err)

	fm := NewFileManager(cfg)
	_, err = fm.Initialize(buffer.New(64))
	require.NoError(t, err)
	defer fm.Close()

	desc, err := fm.CreateNewStoreCacheEntryDescription(DataRange{Offset: 0, Length: 8})
	require.NoError(t, err)

	buf := buffer.New(DescriptionSlotSize)
	buf.SetMode(buffer.ModeWrite)
	PutDescription(buf, desc)
	buf.SetMode(buffer.ModeRead)
	require.NoError(t, fm.WriteDescription(desc.Index, buf))

	require.NoError(t, fm.ClearDescription(desc.Index))
	fm.AddEmptyIndex(desc.Index)

	reopened := NewFileManager(cfg)
	live, err := reopened.Initialize(buffer.New(64))
	require.NoError(t, err)
	require.Empty(t, live)
	require.NoError(t, reopened.Close())
}

func TestFileManagerInitializeRecoversLiveDescriptions(t *testing.T) {
	dir, err := os.MkdirTemp("", "storm_filemanager_test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	cfg, err := storeconfig.New("test", dir)
	require.NoError(t, err)

	fm := NewFileManager(cfg)
	_, err = fm.Initialize(buffer.New(64))
	require.NoError(t, err)

	desc, err := fm.CreateNewStoreCacheEntryDescription(DataRange{Offset: 0, Length: 8})
	require.NoError(t, err)
	buf := buffer.New(DescriptionSlotSize)
	buf.SetMode(buffer.ModeWrite)
	PutDescription(buf, desc)
	buf.SetMode(buffer.ModeRead)
	require.NoError(t, fm.WriteDescription(desc.Index, buf))
	require.NoError(t, fm.Close())

	reopened := NewFileManager(cfg)
	live, err := reopened.Initialize(buffer.New(64))
	require.NoError(t, err)
	require.Len(t, live, 1)
	require.Equal(t, desc, live[0])
	require.NoError(t, reopened.Close())
}

func TestFileManagerReadWriteDataRoundTrip(t *testing.T) {
	dir, err := os.MkdirTemp("", "storm_filemanager_test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	cfg, err := storeconfig.New("test", dir)
	require.NoError(t, err)

	fm := NewFileManager(cfg)
	_, err = fm.Initialize(buffer.New(64))
	require.NoError(t, err)
	defer fm.Close()

	require.NoError(t, fm.SetDataFileLength(32))
	r := DataRange{Offset: 4, Length: 5}

	buf := buffer.New(64)
	buf.PutBytes([]byte("hello"))
	buf.SetMode(buffer.ModeRead)
	require.NoError(t, fm.WriteData(r, buf))

	buf.SetMode(buffer.ModeWrite)
	require.NoError(t, fm.ReadData(r, buf))
	buf.SetMode(buffer.ModeRead)
	require.Equal(t, []byte("hello"), buf.GetBytes(5))
}

func TestFileManagerTrimDescriptionFileSizeDropsTrailingFreeSlots(t *testing.T) {
	dir, err := os.MkdirTemp("", "storm_filemanager_test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	cfg, err := storeconfig.New("test", dir)
	require.NoError(t, err)

	fm := NewFileManager(cfg)
	_, err = fm.Initialize(buffer.New(64))
	require.NoError(t, err)
	defer fm.Close()

	buf := buffer.New(DescriptionSlotSize)
	for i := 0; i < 3; i++ {
		desc, err := fm.CreateNewStoreCacheEntryDescription(DataRange{Offset: int64(i), Length: 1})
		require.NoError(t, err)
		buf.SetMode(buffer.ModeWrite)
		PutDescription(buf, desc)
		buf.SetMode(buffer.ModeRead)
		require.NoError(t, fm.WriteDescription(desc.Index, buf))
	}
	fm.AddEmptyIndex(Index(2))
	fm.AddEmptyIndex(Index(1))

	require.NoError(t, fm.TrimDescriptionFileSize())

	info, err := os.Stat(cfg.DescriptionFilePath())
	require.NoError(t, err)
	require.Equal(t, int64(DescriptionSlotSize), info.Size())
}
