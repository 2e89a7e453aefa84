// Package attach validates user-selected image files before they reach the
// chat controller.
package attach

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/SouvikSarkar080505/image-bot/pkg/chat"
)

// MaxImageSize is the largest image accepted for inline analysis.
const MaxImageSize = 20 << 20

// RejectionMessage is shown to the user when a non-image file is selected.
const RejectionMessage = "Please select an image file"

// ErrTooLarge is returned for images above MaxImageSize.
var ErrTooLarge = fmt.Errorf("attach: image exceeds %d MiB", MaxImageSize>>20)

// InvalidFileTypeError is returned when the selected file is not an image.
type InvalidFileTypeError struct {
	Name     string
	MIMEType string
}

func (e *InvalidFileTypeError) Error() string {
	if e.MIMEType == "" {
		return fmt.Sprintf("attach: %s is not an image file", e.Name)
	}
	return fmt.Sprintf("attach: %s is not an image file (%s)", e.Name, e.MIMEType)
}

// IsInvalidFileType reports whether err is an InvalidFileTypeError.
func IsInvalidFileType(err error) bool {
	var target *InvalidFileTypeError
	return errors.As(err, &target)
}

// Open validates the file at path and returns it as a blob.
func Open(path string) (*chat.FileBlob, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("attach: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, &InvalidFileTypeError{Name: filepath.Base(path)}
	}
	if info.Size() > MaxImageSize {
		return nil, ErrTooLarge
	}

	var sniffed string
	if m, err := mimetype.DetectFile(path); err == nil {
		sniffed = m.String()
	}

	mimeType, err := resolveType(filepath.Base(path), typeByExtension(path), sniffed)
	if err != nil {
		return nil, err
	}
	return chat.NewFileBlob(path, mimeType), nil
}

// FromUpload validates uploaded bytes. declared is the client-supplied content type.
func FromUpload(url, name, declared string, data []byte) (*chat.BytesBlob, error) {
	if len(data) > MaxImageSize {
		return nil, ErrTooLarge
	}
	if declared == "" || declared == "application/octet-stream" {
		declared = typeByExtension(name)
	}

	mimeType, err := resolveType(name, declared, mimetype.Detect(data).String())
	if err != nil {
		return nil, err
	}
	return chat.NewBytesBlob(url, name, mimeType, data), nil
}

// resolveType accepts a file whose declared type is an image. When nothing is
// declared the sniffed type decides. A sniffed image type, being more precise,
// is preferred for the returned type.
func resolveType(name, declared, sniffed string) (string, error) {
	declared = mediaType(declared)
	sniffed = mediaType(sniffed)

	decider := declared
	if decider == "" {
		decider = sniffed
	}
	if !isImage(decider) {
		return "", &InvalidFileTypeError{Name: name, MIMEType: decider}
	}

	if isImage(sniffed) {
		return sniffed, nil
	}
	return decider, nil
}

func typeByExtension(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return ""
	}
	return mime.TypeByExtension(ext)
}

func mediaType(v string) string {
	if v == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(v))
	}
	return mt
}

func isImage(mediaType string) bool {
	return strings.HasPrefix(mediaType, "image/")
}
