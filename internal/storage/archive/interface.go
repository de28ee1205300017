// internal/storage/archive/interface.go
package archive

import (
	"context"
	"fmt"

	"github.com/newthinker/goldencross/internal/core"
)

// Storage is the destination for flat result files
type Storage interface {
	// Write stores data at the given path, replacing any existing file
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns the paths matching the prefix one level deep; nested
	// directories below the prefix's directory are not listed
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)

	// Location describes where path is stored, for display
	Location(path string) string
}

// Config selects and configures a storage backend
type Config struct {
	Type string // "localfs" or "s3"
	Path string // Base directory for localfs
	S3   S3Config
}

// Open creates the backend named by cfg.Type
func Open(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "", "localfs":
		path := cfg.Path
		if path == "" {
			path = "."
		}
		return NewLocalFS(path)
	case "s3":
		if cfg.S3.Bucket == "" {
			return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("s3 bucket required"))
		}
		return NewS3(cfg.S3)
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown storage type %q", cfg.Type))
	}
}
