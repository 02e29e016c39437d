package storage

import "context"

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage captures the one operation the upload archive needs. Listing
// and download are concrete MinioClient methods used by the seed CLI.
type ObjectStorage interface {
	UploadObject(ctx context.Context, key string, data []byte) error
}
