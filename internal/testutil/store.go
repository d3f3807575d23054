package testutil

import (
	"time"

	"arkeep/internal/ark"
	"arkeep/internal/model"
	"arkeep/internal/store"
)

// NewTestStore creates a new in-memory archive store for testing.
func NewTestStore() *store.MemoryStore {
	return store.NewMemoryStore("test-store")
}

// NewTestStoreFS creates an in-memory archive store that reads files through
// the given mock filesystem.
func NewTestStoreFS(fsmgr ark.FilesystemManager) *store.MemoryStore {
	return store.NewMemoryStoreFS("test-store", fsmgr)
}

// Record builds an archive record with encoded-then-decoded metadata, the
// same shape records have after a real listing.
func Record(name string, createdAt time.Time, meta model.ArchiveMetadata) model.ArchiveRecord {
	return model.ArchiveRecord{
		Name:      name,
		CreatedAt: createdAt,
		Metadata:  ark.DecodeComment(ark.EncodeComment(meta)),
	}
}
