package blob

import (
	"context"
	"fmt"
	"os"

	fsblob "virocore/internal/infra/blob/fs"
	memblob "virocore/internal/infra/blob/memory"
	s3blob "virocore/internal/infra/blob/s3"
)

// NewFilesystem returns a filesystem-backed store rooted at root.
func NewFilesystem(root string) (Store, error) { return fsblob.New(root) }

// NewMemory returns an in-memory store for tests.
func NewMemory() Store { return memblob.New() }

// Open selects a blob.Store implementation using environment variables.
//
//	VIROCORE_BLOB_DRIVER: fs|s3|memory (default fs)
//	VIROCORE_BLOB_FS_ROOT: directory root when driver=fs (default ./blobdata)
//	(S3 specific variables documented in the s3 package)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("VIROCORE_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return fsblob.New(os.Getenv("VIROCORE_BLOB_FS_ROOT"))
	case DriverS3:
		return s3blob.OpenFromEnv(ctx)
	case DriverMemory:
		return memblob.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
