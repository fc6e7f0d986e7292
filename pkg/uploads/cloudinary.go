package uploads

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// Fixed transformations applied at upload time.
const (
	ProfileImageTransformation = "w_400,h_400,c_fill/q_auto"
	CoverImageTransformation   = "w_1500,h_500,c_fill/q_auto"
	PostImageTransformation    = "q_auto"
)

// Uploader wraps the Cloudinary client used for image hosting.
type Uploader struct {
	client *cloudinary.Cloudinary
	logger *zap.Logger
}

// New creates an Uploader from a CLOUDINARY_URL-style connection string.
func New(url string, logger *zap.Logger) (*Uploader, error) {
	client, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("error initializing cloudinary client: %w", err)
	}
	logger.Info("cloudinary client initialized")
	return &Uploader{client: client, logger: logger}, nil
}

// UploadImage uploads an image payload (data URI or remote URL) into the
// given folder and returns the hosted secure URL.
func (u *Uploader) UploadImage(ctx context.Context, payload, folder, transformation string) (string, error) {
	resp, err := u.client.Upload.Upload(ctx, payload, uploader.UploadParams{
		Folder:         folder,
		Transformation: transformation,
	})
	if err != nil {
		return "", err
	}
	return resp.SecureURL, nil
}

// DestroyImage removes a previously uploaded asset, identified by its
// hosted URL. Failures are logged, not returned: a dangling remote asset
// must not fail the profile update that replaced it.
func (u *Uploader) DestroyImage(ctx context.Context, url string) {
	publicID := publicIDFromURL(url)
	if publicID == "" {
		return
	}
	if _, err := u.client.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		u.logger.Warn("failed to destroy cloudinary asset",
			zap.String("public_id", publicID), zap.Error(err))
	}
}

// publicIDFromURL extracts the folder-qualified public ID from a Cloudinary
// delivery URL (…/upload/v123/folder/name.ext → folder/name).
func publicIDFromURL(url string) string {
	_, after, found := strings.Cut(url, "/upload/")
	if !found {
		return ""
	}
	parts := strings.SplitN(after, "/", 2)
	if len(parts) == 2 && strings.HasPrefix(parts[0], "v") {
		after = parts[1]
	}
	if i := strings.LastIndex(after, "."); i > 0 {
		after = after[:i]
	}
	return after
}
