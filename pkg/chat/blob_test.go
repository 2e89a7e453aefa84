package chat_test

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/SouvikSarkar080505/image-bot/pkg/chat"
)

var _ = Describe("EncodeBlob", func() {
	It("base64 encodes in-memory blobs", func() {
		blob := chat.NewBytesBlob("/api/images/1", "dot.png", "image/png", []byte("pixels"))

		img, err := chat.EncodeBlob(blob)
		Expect(err).NotTo(HaveOccurred())
		Expect(img.MIMEType).To(Equal("image/png"))
		Expect(img.Data).To(Equal(base64.StdEncoding.EncodeToString([]byte("pixels"))))
	})

	It("reads file blobs from disk", func() {
		path := filepath.Join(GinkgoT().TempDir(), "photo.jpg")
		Expect(os.WriteFile(path, []byte{0xff, 0xd8, 0xff}, 0o600)).To(Succeed())

		blob := chat.NewFileBlob(path, "image/jpeg")
		Expect(blob.Name()).To(Equal("photo.jpg"))
		Expect(blob.Path()).To(Equal(path))
		Expect(blob.URL()).To(HavePrefix("file://"))

		img, err := chat.EncodeBlob(blob)
		Expect(err).NotTo(HaveOccurred())
		Expect(img.Data).To(Equal("/9j/"))
	})

	It("returns an EncodingError when the blob cannot be read", func() {
		blob := chat.NewFileBlob(filepath.Join(GinkgoT().TempDir(), "missing.png"), "image/png")

		_, err := chat.EncodeBlob(blob)
		Expect(err).To(HaveOccurred())

		var encErr *chat.EncodingError
		Expect(errors.As(err, &encErr)).To(BeTrue())
		Expect(encErr.Name).To(Equal("missing.png"))
		Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
	})
})
