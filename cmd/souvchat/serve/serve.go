package servecmder

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SouvikSarkar080505/image-bot/cmd/souvchat/cmdconfig"
	"github.com/SouvikSarkar080505/image-bot/pkg/logger"
	"github.com/SouvikSarkar080505/image-bot/web"
)

const serveLongDesc string = `Serve the chat in a browser.

Starts a web server with the chat page at / and its JSON API under
/api. All browser tabs share one conversation, which lasts as long as
the server runs.

Examples:
  souvchat serve
  souvchat serve --listen 0.0.0.0:8080`

const serveShortDesc string = "Serve the web chat"

type serveCommander struct {
	listen string
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address to listen on (default from config, localhost:8080)")

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := cmdconfig.Load(cmd)
	if err != nil {
		return err
	}
	if c.listen != "" {
		cfg.Listen = c.listen
	}

	log := logger.NewLogger(cfg.Debug)
	defer log.Sync()

	if cfg.APIKey == "" {
		log.Warn("no Gemini API key configured; image analysis will fail",
			zap.String("env", "GEMINI_API_KEY"),
		)
	}

	server, err := web.NewServer(web.Config{ListenAddr: cfg.Listen}, cmdconfig.NewController(cfg, log), log)
	if err != nil {
		return fmt.Errorf("could not create web server: %w", err)
	}

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("could not listen on %s: %w", cfg.Listen, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Souvchat is running at http://%s\n", ln.Addr())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.RunWithListener(ln)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), web.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}
