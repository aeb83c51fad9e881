package storeconfig

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppliesDefaults(t *testing.T) {
	cfg, err := New("demo", "/tmp/stores")
	require.NoError(t, err)
	assert.Equal(t, DefaultDataFileSuffix, cfg.DataFileSuffix)
	assert.Equal(t, DefaultDescriptionFileSuffix, cfg.DescriptionFileSuffix)
	assert.Equal(t, DefaultIDFileSuffix, cfg.IDFileSuffix)
	assert.Equal(t, DefaultByteBufferSize, cfg.ByteBufferSize)
	assert.Equal(t, int64(DefaultMinimumDataFileSize), cfg.MinimumDataFileSize)
}

func TestNewAppliesOptions(t *testing.T) {
	cfg, err := New("demo", "/tmp/stores",
		WithDataFileSuffix("data"),
		WithByteBufferSize(2048),
		WithMinimumDataFileSize(4096))
	require.NoError(t, err)
	assert.Equal(t, "data", cfg.DataFileSuffix)
	assert.Equal(t, 2048, cfg.ByteBufferSize)
	assert.Equal(t, int64(4096), cfg.MinimumDataFileSize)
}

func TestPathsJoinBasePathStoreNameAndSuffix(t *testing.T) {
	cfg, err := New("demo", "/tmp/stores")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/stores", "demo"), cfg.StoreDirectory())
	assert.Equal(t, filepath.Join("/tmp/stores", "demo", "demo.def"), cfg.DescriptionFilePath())
	assert.Equal(t, filepath.Join("/tmp/stores", "demo", "demo.daf"), cfg.DataFilePath())
	assert.Equal(t, filepath.Join("/tmp/stores", "demo", "demo.id"), cfg.IDFilePath())
}

func TestNewRejectsEmptyStoreName(t *testing.T) {
	_, err := New("", "/tmp/stores")
	assert.Error(t, err)
}

func TestNewRejectsNonPositiveByteBufferSize(t *testing.T) {
	_, err := New("demo", "/tmp/stores", WithByteBufferSize(0))
	assert.Error(t, err)
}
