// Package cmdconfig resolves souvchat configuration from command flags.
package cmdconfig

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SouvikSarkar080505/image-bot/pkg/chat"
	"github.com/SouvikSarkar080505/image-bot/pkg/config"
	"github.com/SouvikSarkar080505/image-bot/pkg/gemini"
)

// Load reads the file named by the persistent --config flag and applies
// --debug over it.
func Load(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if f := cmd.Flags().Lookup("debug"); f != nil && f.Changed {
		cfg.Debug, _ = cmd.Flags().GetBool("debug")
	}
	return cfg, nil
}

// NewController builds a chat controller over a Gemini client.
func NewController(cfg *config.Config, logger *zap.Logger) *chat.Controller {
	client := gemini.NewClient(cfg.Gemini(), gemini.WithLogger(logger))
	return chat.NewController(client, logger)
}
