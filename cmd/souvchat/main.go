package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	analyzecmder "github.com/SouvikSarkar080505/image-bot/cmd/souvchat/analyze"
	chatcmder "github.com/SouvikSarkar080505/image-bot/cmd/souvchat/chat"
	servecmder "github.com/SouvikSarkar080505/image-bot/cmd/souvchat/serve"
)

const rootLongDesc string = `Souvchat is an image-aware chat assistant.

Attach an image and the assistant describes it using Gemini. Text-only
messages receive a short acknowledgement.

Configuration is read from ~/.souvchat/config.toml unless --config is
given. GEMINI_API_KEY overrides the api_key setting.`

const rootShortDesc string = "Image-aware chat assistant"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "souvchat",
		Short:         rootShortDesc,
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Path to config file (default ~/.souvchat/config.toml)")
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(analyzecmder.NewAnalyzeCmd())

	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
