package tui

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/SouvikSarkar080505/image-bot/pkg/attach"
	"github.com/SouvikSarkar080505/image-bot/pkg/chat"
)

var _ = Describe("Model", func() {
	var (
		controller *chat.Controller
		release    chan struct{}
		analyzed   chan chat.EncodedImage
		m          Model
		dir        string
	)

	update := func(msg tea.Msg) tea.Cmd {
		next, cmd := m.Update(msg)
		m = next.(Model)
		return cmd
	}

	typeAndEnter := func(text string) tea.Cmd {
		m.textarea.SetValue(text)
		return update(tea.KeyMsg{Type: tea.KeyEnter})
	}

	settle := func() {
		release <- struct{}{}
		Eventually(controller.Processing).Should(BeFalse())
		update(settledMsg{})
	}

	writePNG := func(name string) string {
		var buf bytes.Buffer
		Expect(png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2)))).To(Succeed())
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, buf.Bytes(), 0o600)).To(Succeed())
		return path
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		release = make(chan struct{})
		analyzed = make(chan chat.EncodedImage, 1)
		controller = chat.NewController(chat.AnalyzerFunc(func(_ context.Context, img chat.EncodedImage) (string, error) {
			analyzed <- img
			<-release
			return "A tiny square.", nil
		}), zap.NewNop())

		m = New(context.Background(), controller, nil, nil)
		update(tea.WindowSizeMsg{Width: 80, Height: 24})
	})

	It("starts with the greeting and the header", func() {
		Expect(m.snapshot.Messages).To(HaveLen(1))
		Expect(m.snapshot.Messages[0].Text()).To(Equal(chat.Greeting))
		Expect(m.View()).To(ContainSubstring("Souvchat"))
		Expect(m.View()).To(ContainSubstring("Beta"))
	})

	It("acknowledges text messages", func() {
		cmd := typeAndEnter("hello there")
		Expect(cmd).NotTo(BeNil())
		Expect(m.textarea.Value()).To(BeEmpty())

		Eventually(controller.Processing).Should(BeFalse())
		update(settledMsg{})

		Expect(m.snapshot.Messages).To(HaveLen(3))
		Expect(m.snapshot.Messages[2].Text()).To(Equal(chat.Acknowledge("hello there")))
		Expect(m.textarea.Focused()).To(BeTrue())
	})

	It("ignores blank input", func() {
		Expect(typeAndEnter("   ")).To(BeNil())
		Expect(controller.Messages()).To(HaveLen(1))
	})

	It("sends the attached image with the next message", func() {
		path := writePNG("square.png")

		typeAndEnter("/image " + path)
		Expect(m.attached).NotTo(BeNil())
		Expect(m.warning).To(BeEmpty())
		Expect(m.View()).To(ContainSubstring("attached: square.png"))

		typeAndEnter("")
		Eventually(analyzed).Should(Receive(HaveField("MIMEType", "image/png")))
		Expect(m.attached).To(BeNil())
		Expect(m.snapshot.Processing).To(BeTrue())
		Expect(m.snapshot.Messages[1].Text()).To(Equal(chat.DefaultImagePrompt))
		Expect(m.snapshot.Messages[2].Loading).To(BeTrue())

		settle()
		Expect(m.snapshot.Messages[2].Text()).To(Equal("A tiny square."))
		Expect(m.snapshot.Processing).To(BeFalse())
	})

	It("disables input while a reply is pending", func() {
		typeAndEnter("/image " + writePNG("square.png"))
		typeAndEnter("describe")
		Eventually(analyzed).Should(Receive())

		Expect(m.textarea.Focused()).To(BeFalse())
		update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
		Expect(m.textarea.Value()).To(BeEmpty())

		m.textarea.SetValue("again")
		Expect(update(tea.KeyMsg{Type: tea.KeyEnter})).To(BeNil())
		Expect(controller.Messages()).To(HaveLen(3))

		settle()
		Expect(m.textarea.Focused()).To(BeTrue())
	})

	It("warns when the attachment is not an image", func() {
		notes := filepath.Join(dir, "notes.txt")
		Expect(os.WriteFile(notes, []byte("hello"), 0o600)).To(Succeed())

		typeAndEnter("/image " + notes)
		Expect(m.attached).To(BeNil())
		Expect(m.warning).To(Equal(attach.RejectionMessage))
		Expect(m.View()).To(ContainSubstring(attach.RejectionMessage))
		Expect(controller.Messages()).To(HaveLen(1))
	})

	It("asks for a path when /image has none", func() {
		typeAndEnter("/image")
		Expect(m.warning).To(ContainSubstring("usage"))
	})

	It("clears the attachment", func() {
		typeAndEnter("/image " + writePNG("square.png"))
		Expect(m.attached).NotTo(BeNil())

		typeAndEnter("/clear-image")
		Expect(m.attached).To(BeNil())
		Expect(m.textarea.Value()).To(BeEmpty())
	})

	It("applies files dropped into the watched directory", func() {
		blob, err := attach.Open(writePNG("dropped.png"))
		Expect(err).NotTo(HaveOccurred())

		update(selectionMsg(attach.Selection{Path: blob.Path(), Blob: blob}))
		Expect(m.attached).To(Equal(blob))

		update(selectionMsg(attach.Selection{Path: "x.txt", Err: errors.New("boom")}))
		Expect(m.warning).To(Equal("boom"))
	})

	It("fits long status lines to the terminal width", func() {
		update(tea.WindowSizeMsg{Width: 40, Height: 24})
		update(selectionMsg(attach.Selection{Path: "x", Err: errors.New(strings.Repeat("very long warning ", 10))}))

		var status string
		for _, line := range strings.Split(m.View(), "\n") {
			if strings.Contains(line, "very long warning") {
				status = line
			}
		}
		Expect(status).NotTo(BeEmpty())
		Expect(ansi.StringWidth(status)).To(BeNumerically("<=", 40))
		Expect(status).To(ContainSubstring("…"))
	})

	It("listens for nothing without a watcher", func() {
		Expect(m.listen()).To(BeNil())
	})

	It("quits on ctrl+c", func() {
		cmd := update(tea.KeyMsg{Type: tea.KeyCtrlC})
		Expect(cmd).NotTo(BeNil())
		Expect(cmd()).To(Equal(tea.QuitMsg{}))
	})
})

var _ = Describe("waitSettled", func() {
	It("reports when the submission resolves", func() {
		done := make(chan struct{})
		close(done)
		Expect(waitSettled(done)()).To(Equal(settledMsg{}))
	})
})
