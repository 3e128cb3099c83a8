package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// StorageServiceImpl uploads documents to Cloudinary as raw assets.
type StorageServiceImpl struct {
	cld *cloudinary.Cloudinary
}

// NewStorageService creates a new StorageServiceImpl instance.
func NewStorageService(cld *cloudinary.Cloudinary) StorageService {
	return &StorageServiceImpl{cld: cld}
}

func (s *StorageServiceImpl) Upload(ctx context.Context, folder, name string, body io.Reader) (string, error) {
	overwrite := true
	uploadParams := uploader.UploadParams{
		PublicID:     name,
		Folder:       folder,
		ResourceType: "raw",
		Overwrite:    &overwrite,
	}
	result, err := s.cld.Upload.Upload(ctx, body, uploadParams)
	if err != nil {
		return "", fmt.Errorf("StorageServiceImpl: failed to upload %s: %w", name, err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("StorageServiceImpl: upload of %s rejected: %s", name, result.Error.Message)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("StorageServiceImpl: no URL returned for %s", name)
	}
	return result.SecureURL, nil
}
