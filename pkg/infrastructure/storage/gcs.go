// Package storage is the GCS adapter behind the daily report archive.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// StorageAdapter implements shared.BlobStore on Google Cloud Storage. The
// engine writes each day's markdown report through it and the status API
// reads reports back for clients that missed the notification.
type StorageAdapter struct {
	Client *storage.Client
}

func (a *StorageAdapter) Write(ctx context.Context, bucketName, objectName string, data []byte) error {
	wc := a.Client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	if strings.HasSuffix(objectName, ".md") {
		wc.ContentType = "text/markdown"
	}
	if _, err := wc.Write(data); err != nil {
		return fmt.Errorf("write %s/%s: %w", bucketName, objectName, err)
	}
	return wc.Close()
}

func (a *StorageAdapter) Read(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	rc, err := a.Client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", bucketName, objectName, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
