package storage_test

import (
	"context"
	"errors"
	"testing"

	"tenant-sync/core/storage"
	"tenant-sync/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestNewClient(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:  "localhost:9000",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			Bucket:    "replica",
			Region:    "us-east-1",
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("EndpointWithHTTPS", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:  "https://s3.amazonaws.com",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			UseSSL:    true,
			Region:    "us-east-1",
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestEnsureBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("Exists", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("BucketExists", mock.Anything, "replica").Return(true, nil)

		assert.NoError(t, storage.EnsureBucket(ctx, m, "replica", ""))
		m.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Creates Missing", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("BucketExists", mock.Anything, "replica").Return(false, nil)
		m.On("MakeBucket", mock.Anything, "replica", minio.MakeBucketOptions{Region: "eu-west-1"}).Return(nil)

		assert.NoError(t, storage.EnsureBucket(ctx, m, "replica", "eu-west-1"))
		m.AssertExpectations(t)
	})

	t.Run("Probe Error", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("BucketExists", mock.Anything, "replica").Return(false, errors.New("dial tcp: refused"))

		err := storage.EnsureBucket(ctx, m, "replica", "")
		assert.ErrorContains(t, err, "refused")
	})
}
