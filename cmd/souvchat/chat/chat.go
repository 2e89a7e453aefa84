package chatcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SouvikSarkar080505/image-bot/cmd/souvchat/cmdconfig"
	"github.com/SouvikSarkar080505/image-bot/pkg/attach"
	"github.com/SouvikSarkar080505/image-bot/pkg/logger"
	"github.com/SouvikSarkar080505/image-bot/tui"
)

const chatLongDesc string = `Chat in the terminal.

Type a message and press enter. Attach an image with /image <path> or,
with --drop-dir, by dropping a file into that directory. The attached
image is sent with the next message.

The terminal chat owns the screen, so logs go to --log-file.

Examples:
  souvchat chat
  souvchat chat --drop-dir ~/Pictures/inbox --log-file /tmp/souvchat.log`

const chatShortDesc string = "Chat in the terminal"

type chatCommander struct {
	dropDir string
	logFile string
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.dropDir, "drop-dir", "d", "", "Directory to watch for images to attach")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "File to write logs to")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := cmdconfig.Load(cmd)
	if err != nil {
		return err
	}
	if c.dropDir != "" {
		cfg.DropDir = c.dropDir
	}
	if c.logFile != "" {
		cfg.LogFile = c.logFile
	}

	log, closeLog, err := logger.NewFileLogger(cfg.LogFile, cfg.Debug)
	if err != nil {
		return fmt.Errorf("could not open log file: %w", err)
	}
	defer closeLog()

	var watcher *attach.Watcher
	if cfg.DropDir != "" {
		watcher, err = attach.NewWatcher(cfg.DropDir, attach.DefaultSettle, log)
		if err != nil {
			return fmt.Errorf("could not watch %s: %w", cfg.DropDir, err)
		}
		defer watcher.Close()
	}

	log.Info("terminal chat starting",
		zap.String("model", cfg.Model),
		zap.String("drop_dir", cfg.DropDir),
	)

	return tui.Run(ctx, cmdconfig.NewController(cfg, log), watcher, log)
}
