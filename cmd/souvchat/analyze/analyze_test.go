package analyzecmder

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/SouvikSarkar080505/image-bot/pkg/chat"
)

var _ = Describe("Analyze Command", func() {
	var (
		tmpDir     string
		configPath string
		imagePath  string
		stdout     *bytes.Buffer
		upstream   *httptest.Server

		mu       sync.Mutex
		requests int
		lastBody map[string]any
		status   int
	)

	recorded := func() (int, map[string]any) {
		mu.Lock()
		defer mu.Unlock()
		return requests, lastBody
	}

	writeConfig := func(contents string) {
		Expect(os.WriteFile(configPath, []byte(contents), 0o600)).To(Succeed())
	}

	execute := func(args ...string) error {
		root := &cobra.Command{Use: "souvchat", SilenceUsage: true, SilenceErrors: true}
		root.PersistentFlags().StringP("config", "c", "", "")
		root.PersistentFlags().Bool("debug", false, "")
		root.AddCommand(NewAnalyzeCmd())

		stdout = &bytes.Buffer{}
		root.SetOut(stdout)
		root.SetErr(io.Discard)
		root.SetArgs(append([]string{"analyze", "--config", configPath}, args...))
		return root.Execute()
	}

	BeforeEach(func() {
		GinkgoT().Setenv("GEMINI_API_KEY", "")
		GinkgoT().Setenv("HOME", GinkgoT().TempDir())

		tmpDir = GinkgoT().TempDir()
		configPath = filepath.Join(tmpDir, "config.toml")
		imagePath = filepath.Join(tmpDir, "photo.png")

		var buf bytes.Buffer
		Expect(png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2)))).To(Succeed())
		Expect(os.WriteFile(imagePath, buf.Bytes(), 0o600)).To(Succeed())

		requests, lastBody, status = 0, nil, http.StatusOK
		upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			requests++
			_ = json.NewDecoder(r.Body).Decode(&lastBody)
			if status != http.StatusOK {
				http.Error(w, `{"error":{"message":"quota"}}`, status)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"A small black square."}]}}]}`)
		}))
		DeferCleanup(upstream.Close)

		writeConfig(`api_key = "test-key"
base_url = "` + upstream.URL + `"
`)
	})

	It("prints the analysis of the image", func() {
		Expect(execute(imagePath)).To(Succeed())
		Expect(stdout.String()).To(Equal("A small black square.\n"))
		n, _ := recorded()
		Expect(n).To(Equal(1))
	})

	It("sends the image inline with its detected type", func() {
		Expect(execute("--text", "what is this?", imagePath)).To(Succeed())

		_, body := recorded()
		contents := body["contents"].([]any)
		parts := contents[0].(map[string]any)["parts"].([]any)
		Expect(parts).To(HaveLen(2))
		inline := parts[1].(map[string]any)["inline_data"].(map[string]any)
		Expect(inline["mime_type"]).To(Equal("image/png"))
		Expect(inline["data"]).NotTo(BeEmpty())
	})

	It("rejects a file that is not an image", func() {
		notes := filepath.Join(tmpDir, "notes.txt")
		Expect(os.WriteFile(notes, []byte("plain text"), 0o600)).To(Succeed())

		err := execute(notes)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("Please select an image file"))
		n, _ := recorded()
		Expect(n).To(BeZero())
	})

	It("prints the apology when no API key is configured", func() {
		writeConfig(`base_url = "` + upstream.URL + `"` + "\n")

		Expect(execute(imagePath)).To(Succeed())
		Expect(stdout.String()).To(Equal(chat.AnalysisApology + "\n"))
		n, _ := recorded()
		Expect(n).To(BeZero())
	})

	It("prints the apology when the upstream fails", func() {
		mu.Lock()
		status = http.StatusTooManyRequests
		mu.Unlock()

		Expect(execute(imagePath)).To(Succeed())
		Expect(stdout.String()).To(Equal(chat.AnalysisApology + "\n"))
	})

	It("fails on an invalid config file", func() {
		writeConfig("not = [valid\n")
		Expect(execute(imagePath)).To(HaveOccurred())
	})

	It("requires exactly one image argument", func() {
		Expect(execute()).To(HaveOccurred())
	})
})
