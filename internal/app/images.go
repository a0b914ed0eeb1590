package app

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"shelfmark/internal/util"
)

// storeImage uploads an image under a fresh key and returns the key and
// its public URL.
func (a *App) storeImage(ctx context.Context, prefix string, up *Upload) (string, string, error) {
	if a.objects == nil {
		return "", "", fmt.Errorf("image upload is not configured")
	}
	ext := strings.ToLower(filepath.Ext(up.Filename))
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := prefix + "/" + util.NewID() + ext
	if err := a.objects.Put(ctx, key, up.Reader, up.Size, contentType); err != nil {
		return "", "", fmt.Errorf("store image: %w", err)
	}
	return key, a.objects.URL(key), nil
}
