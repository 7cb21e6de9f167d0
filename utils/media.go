package utils

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// PostImageDir is the media sub-directory holding post images.
const PostImageDir = "posts"

const maxImageSize = 10 * 1024 * 1024

var (
	// ErrNotImage is returned when an upload does not sniff as an image.
	ErrNotImage = errors.New("upload a valid image; the file you uploaded was either not an image or a corrupted image")
	// ErrImageTooLarge is returned for uploads above the size limit.
	ErrImageTooLarge = errors.New("image exceeds 10MB")
)

// SaveImage validates an uploaded image and stores it under root/posts.
// It returns the media-relative path, e.g. "posts/small.gif".
func SaveImage(root string, header *multipart.FileHeader) (string, error) {
	if header.Size > maxImageSize {
		return "", ErrImageTooLarge
	}
	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("detect upload type: %w", err)
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", ErrNotImage
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	dir := filepath.Join(root, PostImageDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media directory: %w", err)
	}

	name := filepath.Base(header.Filename)
	if name == "." || name == "/" || name == "" {
		name = "image" + mt.Extension()
	}
	out, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		ext := filepath.Ext(name)
		name = fmt.Sprintf("%s_%s%s", strings.TrimSuffix(name, ext), uuid.NewString()[:7], ext)
		out, err = os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	}
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer out.Close()

	written, err := io.Copy(out, io.LimitReader(src, maxImageSize+1))
	if err == nil && written > maxImageSize {
		err = ErrImageTooLarge
	}
	if err != nil {
		_ = out.Close()
		_ = os.Remove(filepath.Join(dir, name))
		return "", err
	}
	return path.Join(PostImageDir, name), nil
}
