// Package storeconfig describes how a Store is configured: two required
// fields (storeName, basePath) plus five options that fall back to
// sensible defaults when left unset.
package storeconfig

import (
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/johanneslatzel/storm/storeerr"
)

// Defaults applied to any option not explicitly set via New's opts.
const (
	DefaultDataFileSuffix        = "daf"
	DefaultDescriptionFileSuffix = "def"
	DefaultIDFileSuffix          = "id"
	DefaultByteBufferSize        = 512
	DefaultMinimumDataFileSize   = 1024
)

// Config is the full set of recognized store options.
type Config struct {
	// StoreName is the unique name of the store within BasePath.
	StoreName string
	// BasePath is the parent directory holding the store's directory.
	BasePath string

	DataFileSuffix        string
	DescriptionFileSuffix string
	IDFileSuffix          string

	// ByteBufferSize is the initial capacity hint for the store's
	// shared Buffer.
	ByteBufferSize int
	// MinimumDataFileSize is the minimum growth step of the data file.
	MinimumDataFileSize int64
}

// Option customizes a Config built by New.
type Option func(*Config)

func WithDataFileSuffix(suffix string) Option {
	return func(c *Config) { c.DataFileSuffix = suffix }
}

func WithDescriptionFileSuffix(suffix string) Option {
	return func(c *Config) { c.DescriptionFileSuffix = suffix }
}

func WithIDFileSuffix(suffix string) Option {
	return func(c *Config) { c.IDFileSuffix = suffix }
}

func WithByteBufferSize(size int) Option {
	return func(c *Config) { c.ByteBufferSize = size }
}

func WithMinimumDataFileSize(size int64) Option {
	return func(c *Config) { c.MinimumDataFileSize = size }
}

// New builds a Config, default-initializing every option other than
// storeName and basePath, then validates it.
func New(storeName, basePath string, opts ...Option) (Config, error) {
	cfg := Config{
		StoreName:             storeName,
		BasePath:              basePath,
		DataFileSuffix:        DefaultDataFileSuffix,
		DescriptionFileSuffix: DefaultDescriptionFileSuffix,
		IDFileSuffix:          DefaultIDFileSuffix,
		ByteBufferSize:        DefaultByteBufferSize,
		MinimumDataFileSize:   DefaultMinimumDataFileSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, storeerr.New(storeerr.KindInvalidArgument, "storeconfig.New", err)
	}
	return cfg, nil
}

// Validate reports the first violated constraint, if any.
func (c Config) Validate() error {
	switch {
	case c.StoreName == "":
		return errors.New("storeconfig: storeName must not be empty")
	case c.BasePath == "":
		return errors.New("storeconfig: basePath must not be empty")
	case c.DataFileSuffix == "":
		return errors.New("storeconfig: dataFileSuffix must not be empty")
	case c.DescriptionFileSuffix == "":
		return errors.New("storeconfig: descriptionFileSuffix must not be empty")
	case c.IDFileSuffix == "":
		return errors.New("storeconfig: idFileSuffix must not be empty")
	case c.ByteBufferSize <= 0:
		return errors.New("storeconfig: byteBufferSize must be positive")
	case c.MinimumDataFileSize <= 0:
		return errors.New("storeconfig: minimumDataFileSize must be positive")
	default:
		return nil
	}
}

// StoreDirectory is basePath/storeName, where all three backing files
// live.
func (c Config) StoreDirectory() string {
	return filepath.Join(c.BasePath, c.StoreName)
}

// DescriptionFilePath is storeDirectory/storeName.descriptionFileSuffix.
func (c Config) DescriptionFilePath() string {
	return filepath.Join(c.StoreDirectory(), c.StoreName+"."+c.DescriptionFileSuffix)
}

// DataFilePath is storeDirectory/storeName.dataFileSuffix.
func (c Config) DataFilePath() string {
	return filepath.Join(c.StoreDirectory(), c.StoreName+"."+c.DataFileSuffix)
}

// IDFilePath is storeDirectory/storeName.idFileSuffix.
func (c Config) IDFilePath() string {
	return filepath.Join(c.StoreDirectory(), c.StoreName+"."+c.IDFileSuffix)
}
