package store

import (
	"fmt"

	"arkeep/internal/ark"
	"arkeep/internal/config"
)

// NewStoreFromConfig creates an ArchiveStore implementation based on the
// store config type. passphrase is the resolved repository passphrase for
// backends that need one (currently only exec); it may be empty.
func NewStoreFromConfig(cfg config.StoreConfig, passphrase string) (ark.ArchiveStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(cfg.Name), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem store requires fs_root to be set")
		}
		return NewFileSystemStore(cfg.Name, cfg.FSRoot)
	case "exec":
		if cfg.ExecBinary == "" || cfg.ExecRepository == "" {
			return nil, fmt.Errorf("exec store requires exec_binary and exec_repository to be set")
		}
		return NewExecStore(cfg.ExecBinary, cfg.ExecRepository, passphrase), nil
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 store requires s3_bucket to be set")
		}
		return NewS3Store(cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey)
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
