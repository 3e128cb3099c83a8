package storage

import (
	"context"
	"io"
)

// StorageService keeps generated booking documents.
type StorageService interface {
	// Upload stores body under folder/name and returns its public https URL.
	Upload(ctx context.Context, folder, name string, body io.Reader) (string, error)
}
