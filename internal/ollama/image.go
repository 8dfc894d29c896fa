package ollama

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
)

// ImageExtensions are the file types accepted as image attachments.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}

// Image is an attachment ready to be sent with a generate request.
type Image struct {
	Name string
	Size int64
	// Data is the base64-encoded file content.
	Data string
}

// LoadImage reads and encodes the image at path.
func LoadImage(path string) (*Image, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(ImageExtensions, ext) {
		return nil, fmt.Errorf("unsupported image type %q, expected one of %s", ext, strings.Join(ImageExtensions, " "))
	}

	raw, err := os.ReadFile(path) //nolint:gosec // path is supplied by the user
	if err != nil {
		return nil, fmt.Errorf("failed to attach image: %w", err)
	}

	return &Image{
		Name: filepath.Base(path),
		Size: int64(len(raw)),
		Data: base64.StdEncoding.EncodeToString(raw),
	}, nil
}

// String describes the attachment, e.g. "map.png (1.2 kB)".
func (i *Image) String() string {
	return fmt.Sprintf("%s (%s)", i.Name, humanize.Bytes(uint64(i.Size))) //nolint:gosec // size is never negative
}
