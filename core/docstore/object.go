package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"

	"tenant-sync/core/storage"

	"github.com/minio/minio-go/v7"
)

const objectBackend = "s3"

var errNoSuchKey = errors.New("no such key")

// ObjectStore keeps one JSON object per document in an S3 bucket.
// Objects live at <prefix>/<realm>/<name>.json.
type ObjectStore struct {
	client storage.Client
	bucket string
	prefix string
}

// NewObjectStore creates an ObjectStore over client.
func NewObjectStore(client storage.Client, bucket, prefix string) *ObjectStore {
	return &ObjectStore{client: client, bucket: bucket, prefix: prefix}
}

// objectName maps key onto its object path. Realms and names are single
// path segments; anything that would resolve elsewhere under the prefix is refused.
func (s *ObjectStore) objectName(key Key) (string, error) {
	if err := ValidateRealm(key.Realm); err != nil {
		return "", err
	}
	if err := ValidateRealm(key.Name); err != nil {
		return "", fmt.Errorf("invalid document name %q: %w", key.Name, err)
	}
	return path.Join(s.prefix, key.Realm, key.Name+".json"), nil
}

func (s *ObjectStore) Get(ctx context.Context, key Key) (*Document, error) {
	name, err := s.objectName(key)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.getError(key, err)
	}
	defer obj.Close()

	// minio reports a missing object on first read, not on GetObject.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.getError(key, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &BackendError{Backend: objectBackend, Code: "InvalidDocument", Message: fmt.Sprintf("%s: %v", key, err), Err: err}
	}
	return &doc, nil
}

func (s *ObjectStore) getError(key Key, err error) error {
	if cerr := classifyObjectError(err); !errors.Is(cerr, errNoSuchKey) {
		return fmt.Errorf("failed to read %s: %w", key, cerr)
	}
	return nil
}

func (s *ObjectStore) Set(ctx context.Context, key Key, doc Document) error {
	name, err := s.objectName(key)
	if err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	_, err = s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, classifyObjectError(err))
	}
	return nil
}

// SetMany writes objects one by one, tombstones first, so a partial failure
// never publishes entities without the deletions that accompany them.
func (s *ObjectStore) SetMany(ctx context.Context, docs map[Key]Document) error {
	for _, key := range orderedKeys(docs) {
		if err := s.Set(ctx, key, docs[key]); err != nil {
			return err
		}
	}
	return nil
}

func (s *ObjectStore) Delete(ctx context.Context, key Key) error {
	name, err := s.objectName(key)
	if err != nil {
		return err
	}
	err = s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{})
	if err == nil {
		return nil
	}
	if cerr := classifyObjectError(err); !errors.Is(cerr, errNoSuchKey) {
		return fmt.Errorf("failed to delete %s: %w", key, cerr)
	}
	return nil
}

func (s *ObjectStore) DeleteRealm(ctx context.Context, realm string) error {
	if err := ValidateRealm(realm); err != nil {
		return err
	}
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    path.Join(s.prefix, realm) + "/",
		Recursive: true,
	})

	// Listing errors arrive in-band and must not be handed to RemoveObjects.
	toRemove := make(chan minio.ObjectInfo)
	listDone := make(chan struct{})
	var listErr error
	go func() {
		defer close(listDone)
		defer close(toRemove)
		for obj := range objects {
			if obj.Err != nil {
				if listErr == nil {
					listErr = obj.Err
				}
				continue
			}
			toRemove <- obj
		}
	}()

	var removeErr error
	for rerr := range s.client.RemoveObjects(ctx, s.bucket, toRemove, minio.RemoveObjectsOptions{}) {
		if removeErr == nil && rerr.Err != nil {
			removeErr = rerr.Err
		}
	}
	for range toRemove {
	}
	<-listDone
	if listErr != nil {
		return fmt.Errorf("failed to list realm %s: %w", realm, classifyObjectError(listErr))
	}
	if removeErr != nil {
		return fmt.Errorf("failed to delete realm %s: %w", realm, classifyObjectError(removeErr))
	}
	return nil
}

func (s *ObjectStore) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return classifyObjectError(err)
	}
	if !exists {
		return &BackendError{Backend: objectBackend, Code: "NoSuchBucket", Message: fmt.Sprintf("bucket %q does not exist", s.bucket)}
	}
	return nil
}

func classifyObjectError(err error) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey":
		return errNoSuchKey
	case resp.Code != "":
		return &BackendError{Backend: objectBackend, Code: resp.Code, Message: resp.Message, Err: err}
	default:
		return &UnavailableError{Backend: objectBackend, Err: err}
	}
}
