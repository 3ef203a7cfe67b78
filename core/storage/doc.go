// Package storage wraps the MinIO Go client used by the S3 remote backend.
//
// The Client interface covers exactly the calls the docstore.ObjectStore makes,
// which keeps the backend mockable in unit tests (see core/storage/mocks). Both
// AWS S3 and self-hosted MinIO are supported.
//
// # Operations
//
//   - BucketExists: health probe and bucket bootstrap.
//   - PutObject / GetObject / RemoveObject: one replicated document per object.
//   - ListObjects / RemoveObjects: dropping every document of a deleted tenant realm.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
package storage
