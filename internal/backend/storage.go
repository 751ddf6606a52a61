package backend

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoding for uploaded images
	"io"
	"net/http"
	"path"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

// Storage bucket names owned by the backend.
const (
	BucketAvatars = "avatars"
	BucketCovers  = "covers"
	BucketAudio   = "audio"
)

// maxImageWidth bounds uploaded avatar/cover images; anything wider is
// downscaled before upload so the buckets never hold camera-sized files.
const maxImageWidth = 1024

// Upload stores a binary object under bucket/key and returns its public URL.
func (c *Client) Upload(ctx context.Context, bucket, key, contentType string, r io.Reader) (string, error) {
	reqURL := c.baseURL + "/storage/v1/object/" + bucket + "/" + key
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, r)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("storage returned status %d: %s", resp.StatusCode, string(body))
	}

	return c.PublicURL(bucket, key), nil
}

// PublicURL resolves the publicly reachable URL for a stored object.
func (c *Client) PublicURL(bucket, key string) string {
	return c.baseURL + "/storage/v1/object/public/" + bucket + "/" + key
}

// UploadImage decodes, downscales and re-encodes an image, then uploads
// it under a profile-scoped key in the given bucket.
func (c *Client) UploadImage(ctx context.Context, bucket, profileID string, r io.Reader) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	if img.Bounds().Dx() > maxImageWidth {
		img = resize.Resize(maxImageWidth, 0, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	key := profileID + "/" + uuid.NewString() + ".jpg"
	return c.Upload(ctx, bucket, key, "image/jpeg", &buf)
}

// UploadAudio uploads an audio file under a profile-scoped key, keeping
// the original extension so players can pick a decoder.
func (c *Client) UploadAudio(ctx context.Context, profileID, filename, contentType string, r io.Reader) (string, error) {
	key := profileID + "/" + uuid.NewString() + path.Ext(filename)
	return c.Upload(ctx, BucketAudio, key, contentType, r)
}
