package chat

import (
	"bytes"
	"encoding/base64"
	"io"
	"net/url"
	"os"
	"path/filepath"
)

// Blob is an image selected by the user.
type Blob interface {
	// Name is a human readable name, usually the file name.
	Name() string
	// MIMEType is the declared image type, e.g. "image/png".
	MIMEType() string
	// URL is the local display handle recorded in the user's message.
	URL() string
	// Open returns the raw image bytes.
	Open() (io.ReadCloser, error)
}

// EncodedImage is an image in the form the remote analysis call consumes.
type EncodedImage struct {
	MIMEType string
	// Data is the standard base64 encoding of the image bytes.
	Data string
}

// EncodeBlob reads b fully and base64 encodes it.
func EncodeBlob(b Blob) (EncodedImage, error) {
	rc, err := b.Open()
	if err != nil {
		return EncodedImage{}, &EncodingError{Name: b.Name(), Err: err}
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return EncodedImage{}, &EncodingError{Name: b.Name(), Err: err}
	}

	return EncodedImage{
		MIMEType: b.MIMEType(),
		Data:     base64.StdEncoding.EncodeToString(raw),
	}, nil
}

// FileBlob is an image on the local filesystem.
type FileBlob struct {
	path     string
	mimeType string
}

// NewFileBlob returns a Blob for the file at path. The type is not validated here.
func NewFileBlob(path, mimeType string) *FileBlob {
	return &FileBlob{path: path, mimeType: mimeType}
}

func (f *FileBlob) Name() string     { return filepath.Base(f.path) }
func (f *FileBlob) MIMEType() string { return f.mimeType }
func (f *FileBlob) Path() string     { return f.path }

func (f *FileBlob) URL() string {
	abs, err := filepath.Abs(f.path)
	if err != nil {
		abs = f.path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}

func (f *FileBlob) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

// BytesBlob is an image held in memory, such as an HTTP upload.
type BytesBlob struct {
	url      string
	name     string
	mimeType string
	data     []byte
}

// NewBytesBlob returns a Blob over data, displayed at url.
func NewBytesBlob(url, name, mimeType string, data []byte) *BytesBlob {
	return &BytesBlob{url: url, name: name, mimeType: mimeType, data: data}
}

func (b *BytesBlob) Name() string     { return b.name }
func (b *BytesBlob) MIMEType() string { return b.mimeType }
func (b *BytesBlob) URL() string      { return b.url }
func (b *BytesBlob) Bytes() []byte    { return b.data }

func (b *BytesBlob) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}
