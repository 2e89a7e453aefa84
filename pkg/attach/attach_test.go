package attach_test

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/SouvikSarkar080505/image-bot/pkg/attach"
)

func pngBytes() []byte {
	var buf bytes.Buffer
	Expect(png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2)))).To(Succeed())
	return buf.Bytes()
}

func writeFile(dir, name string, data []byte) string {
	path := filepath.Join(dir, name)
	Expect(os.WriteFile(path, data, 0o600)).To(Succeed())
	return path
}

var _ = Describe("Open", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("accepts png files", func() {
		blob, err := attach.Open(writeFile(dir, "dot.png", pngBytes()))
		Expect(err).NotTo(HaveOccurred())
		Expect(blob.MIMEType()).To(Equal("image/png"))
		Expect(blob.Name()).To(Equal("dot.png"))
	})

	It("prefers the sniffed image type over the extension", func() {
		blob, err := attach.Open(writeFile(dir, "actually-png.jpg", pngBytes()))
		Expect(err).NotTo(HaveOccurred())
		Expect(blob.MIMEType()).To(Equal("image/png"))
	})

	It("sniffs files without an extension", func() {
		blob, err := attach.Open(writeFile(dir, "screenshot", pngBytes()))
		Expect(err).NotTo(HaveOccurred())
		Expect(blob.MIMEType()).To(Equal("image/png"))
	})

	It("rejects text/plain files", func() {
		_, err := attach.Open(writeFile(dir, "notes.txt", []byte("hello")))
		Expect(err).To(HaveOccurred())
		Expect(attach.IsInvalidFileType(err)).To(BeTrue())

		var typeErr *attach.InvalidFileTypeError
		Expect(errors.As(err, &typeErr)).To(BeTrue())
		Expect(typeErr.MIMEType).To(Equal("text/plain"))
	})

	It("rejects directories", func() {
		_, err := attach.Open(dir)
		Expect(attach.IsInvalidFileType(err)).To(BeTrue())
	})

	It("reports missing files", func() {
		_, err := attach.Open(filepath.Join(dir, "gone.png"))
		Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
		Expect(attach.IsInvalidFileType(err)).To(BeFalse())
	})
})

var _ = Describe("FromUpload", func() {
	It("accepts a declared image type", func() {
		blob, err := attach.FromUpload("/api/images/1", "dot.png", "image/png", pngBytes())
		Expect(err).NotTo(HaveOccurred())
		Expect(blob.URL()).To(Equal("/api/images/1"))
		Expect(blob.MIMEType()).To(Equal("image/png"))
	})

	It("falls back to the file name for generic declared types", func() {
		blob, err := attach.FromUpload("/api/images/2", "dot.png", "application/octet-stream", pngBytes())
		Expect(err).NotTo(HaveOccurred())
		Expect(blob.MIMEType()).To(Equal("image/png"))
	})

	It("rejects a declared non-image type", func() {
		_, err := attach.FromUpload("/api/images/3", "notes.txt", "text/plain", []byte("hello"))
		Expect(attach.IsInvalidFileType(err)).To(BeTrue())
	})

	It("rejects oversized uploads", func() {
		_, err := attach.FromUpload("/api/images/4", "big.png", "image/png", make([]byte, attach.MaxImageSize+1))
		Expect(err).To(MatchError(attach.ErrTooLarge))
	})
})
