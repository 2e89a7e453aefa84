package analyzecmder

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/SouvikSarkar080505/image-bot/cmd/souvchat/cmdconfig"
	"github.com/SouvikSarkar080505/image-bot/pkg/attach"
	"github.com/SouvikSarkar080505/image-bot/pkg/logger"
)

const analyzeLongDesc string = `Analyze a single image and print the assistant's reply.

The image goes through the same conversation flow as the chat: it is
checked, encoded and sent to Gemini, and the reply is printed. Replies
are rendered as markdown when stdout is a terminal.

Examples:
  souvchat analyze ./photo.jpg
  souvchat analyze --text "What breed is this dog?" ./dog.png`

const analyzeShortDesc string = "Analyze one image"

type analyzeCommander struct {
	text  string
	plain bool
}

func NewAnalyzeCmd() *cobra.Command {
	cmder := &analyzeCommander{}

	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: analyzeShortDesc,
		Long:  analyzeLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&cmder.text, "text", "t", "", "Message to send with the image")
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Print the reply without markdown rendering")

	return cmd
}

func (c *analyzeCommander) run(ctx context.Context, cmd *cobra.Command, path string) error {
	cfg, err := cmdconfig.Load(cmd)
	if err != nil {
		return err
	}

	log := logger.New(cmd.ErrOrStderr(), cfg.Debug, false)
	defer log.Sync()

	blob, err := attach.Open(path)
	if err != nil {
		if attach.IsInvalidFileType(err) {
			return fmt.Errorf("%s: %w", attach.RejectionMessage, err)
		}
		return fmt.Errorf("could not open image: %w", err)
	}

	controller := cmdconfig.NewController(cfg, log)
	done, err := controller.Submit(ctx, c.text, blob)
	if err != nil {
		return fmt.Errorf("could not submit image: %w", err)
	}

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	msgs := controller.Messages()
	reply := msgs[len(msgs)-1].Text()
	log.Debug("analysis finished", zap.String("image", blob.Path()), zap.Int("reply_len", len(reply)))

	return c.print(cmd.OutOrStdout(), reply)
}

func (c *analyzeCommander) print(out io.Writer, reply string) error {
	if !c.plain && isTerminal(out) {
		style := "light"
		if termenv.HasDarkBackground() {
			style = "dark"
		}
		rendered, err := glamour.Render(reply, style)
		if err == nil {
			_, err = io.WriteString(out, rendered)
			return err
		}
	}

	_, err := fmt.Fprintln(out, strings.TrimRight(reply, "\n"))
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
