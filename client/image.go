package client

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"streamchat/config"
	"streamchat/model"
	"streamchat/validate"
)

var extensionMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// LoadImage reads an image file and returns it as an attachment. The type is
// taken from the extension, falling back to content sniffing.
func LoadImage(path string) (*model.ImageAttachment, error) {
	path = config.ExpandPath(path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > validate.MaxImageBytes {
		return nil, fmt.Errorf("image is %d bytes, maximum is %d", info.Size(), validate.MaxImageBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	mimeType, ok := extensionMimeTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		mimeType = http.DetectContentType(data)
	}
	return NewImageAttachment(data, mimeType, filepath.Base(path))
}

// NewImageAttachment encodes raw image bytes. It enforces the same type and
// size limits the server does, so an oversized image never leaves the client.
func NewImageAttachment(data []byte, mimeType, fileName string) (*model.ImageAttachment, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("image is empty")
	}
	if !slices.Contains(validate.AllowedImageTypes, mimeType) {
		return nil, fmt.Errorf("unsupported image type %q (allowed: %s)",
			mimeType, strings.Join(validate.AllowedImageTypes, ", "))
	}
	if len(data) > validate.MaxImageBytes {
		return nil, fmt.Errorf("image is %d bytes, maximum is %d", len(data), validate.MaxImageBytes)
	}

	return &model.ImageAttachment{
		Data:     base64.StdEncoding.EncodeToString(data),
		MimeType: mimeType,
		FileName: fileName,
	}, nil
}
