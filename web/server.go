// Package web serves the single-page chat interface and its JSON API over
// one chat controller.
package web

import (
	"bufio"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/SouvikSarkar080505/image-bot/pkg/attach"
	"github.com/SouvikSarkar080505/image-bot/pkg/chat"
)

//go:embed static/index.html
var indexHTML []byte

const (
	// DefaultBodyLimit leaves room for a maximum size image plus form overhead.
	DefaultBodyLimit = attach.MaxImageSize + 1<<20

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	heartbeatInterval = 15 * time.Second
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server exposes one chat controller over HTTP. The controller is the
// page session: every browser tab sees the same conversation.
type Server struct {
	config     Config
	controller *chat.Controller
	logger     *zap.Logger
	server     *fiber.App

	// uploads backs the ImageRef URLs of submitted images for display.
	mu      sync.RWMutex
	uploads map[string]*chat.BytesBlob

	done     chan struct{}
	doneOnce sync.Once
}

// NewServer creates a Server.
func NewServer(config Config, controller *chat.Controller, logger *zap.Logger) (*Server, error) {
	if controller == nil {
		return nil, errors.New("web: controller must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.BodyLimit <= 0 {
		config.BodyLimit = DefaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		BodyLimit:             config.BodyLimit,
	})

	s := &Server{
		config:     config,
		controller: controller,
		logger:     logger,
		server:     app,
		uploads:    make(map[string]*chat.BytesBlob),
		done:       make(chan struct{}),
	}
	s.registerRoutes(app)

	return s, nil
}

func (s *Server) registerRoutes(app *fiber.App) {
	app.Get("/", s.handleIndex)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	api := app.Group("/api")
	api.Get("/messages", s.handleMessages)
	api.Post("/messages", s.handleSubmit)
	api.Get("/images/:id", s.handleImage)
	api.Get("/events", s.handleEvents)
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting web server", zap.String("listen", s.config.ListenAddr))
	return s.server.Listen(s.config.ListenAddr)
}

// RunWithListener serves on an existing listener.
func (s *Server) RunWithListener(ln net.Listener) error {
	s.logger.Info("starting web server", zap.String("listen", ln.Addr().String()))
	return s.server.Listener(ln)
}

// Shutdown ends event streams and stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.doneOnce.Do(func() { close(s.done) })
	return s.server.ShutdownWithContext(ctx)
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.Send(indexHTML)
}

// handleMessages returns the conversation and processing flag.
func (s *Server) handleMessages(c *fiber.Ctx) error {
	return c.JSON(s.controller.Snapshot())
}

// handleSubmit accepts a multipart form with "text" and an optional "image".
func (s *Server) handleSubmit(c *fiber.Ctx) error {
	text := c.FormValue("text")

	var image chat.Blob
	fh, err := c.FormFile("image")
	switch {
	case err == nil:
		blob, status, err := s.readUpload(fh)
		if err != nil {
			s.logger.Warn("rejected upload", zap.String("filename", fh.Filename), zap.Error(err))
			return c.Status(status).JSON(ErrorResponse{Error: uploadErrorMessage(err)})
		}
		image = blob
	case errors.Is(err, fasthttp.ErrMissingFile), errors.Is(err, fasthttp.ErrNoMultipartForm):
		// text only
	default:
		s.logger.Error("failed to parse form", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid form data"})
	}

	if _, err := s.controller.Submit(c.UserContext(), text, image); err != nil {
		if image != nil {
			s.forgetUpload(image.URL())
		}
		switch {
		case errors.Is(err, chat.ErrEmptySubmission):
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "enter a message or attach an image"})
		case errors.Is(err, chat.ErrBusy):
			return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: "still working on the previous message"})
		default:
			s.logger.Error("submission failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "internal error"})
		}
	}

	s.logger.Debug("submission accepted",
		zap.Int("text_len", len(text)),
		zap.Bool("image", image != nil),
	)
	return c.Status(fiber.StatusAccepted).JSON(s.controller.Snapshot())
}

func (s *Server) readUpload(fh *multipart.FileHeader) (*chat.BytesBlob, int, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fiber.StatusBadRequest, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, attach.MaxImageSize+1))
	if err != nil {
		return nil, fiber.StatusBadRequest, fmt.Errorf("read upload: %w", err)
	}

	id := uuid.NewString()
	blob, err := attach.FromUpload("/api/images/"+id, fh.Filename, fh.Header.Get(fiber.HeaderContentType), data)
	switch {
	case err == nil:
	case attach.IsInvalidFileType(err):
		return nil, fiber.StatusUnsupportedMediaType, err
	case errors.Is(err, attach.ErrTooLarge):
		return nil, fiber.StatusRequestEntityTooLarge, err
	default:
		return nil, fiber.StatusBadRequest, err
	}

	s.mu.Lock()
	s.uploads[id] = blob
	s.mu.Unlock()
	return blob, fiber.StatusOK, nil
}

func (s *Server) forgetUpload(url string) {
	id := strings.TrimPrefix(url, "/api/images/")
	s.mu.Lock()
	delete(s.uploads, id)
	s.mu.Unlock()
}

func uploadErrorMessage(err error) string {
	switch {
	case attach.IsInvalidFileType(err):
		return attach.RejectionMessage
	case errors.Is(err, attach.ErrTooLarge):
		return "image is too large"
	default:
		return "could not read the uploaded image"
	}
}

// handleImage serves an image previously submitted in this session.
func (s *Server) handleImage(c *fiber.Ctx) error {
	s.mu.RLock()
	blob, ok := s.uploads[c.Params("id")]
	s.mu.RUnlock()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "image not found"})
	}

	c.Set(fiber.HeaderContentType, blob.MIMEType())
	c.Set(fiber.HeaderCacheControl, "private, max-age=3600")
	return c.Send(blob.Bytes())
}

// handleEvents streams a snapshot on connect and after every state change
// as server-sent events.
func (s *Server) handleEvents(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	updates := make(chan chat.Snapshot, 1)
	unsubscribe := s.controller.Subscribe(latest(updates))
	initial := s.controller.Snapshot()

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		if err := writeSnapshot(w, initial); err != nil {
			return
		}

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case snap := <-updates:
				if err := writeSnapshot(w, snap); err != nil {
					s.logger.Debug("event stream closed", zap.Error(err))
					return
				}
			case <-heartbeat.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			case <-s.done:
				return
			}
		}
	}))

	return nil
}

// latest returns an observer that keeps only the newest snapshot in ch.
// Observer deliveries are serialized, so the drain-then-send cannot race
// another delivery.
func latest(ch chan chat.Snapshot) func(chat.Snapshot) {
	return func(snap chat.Snapshot) {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func writeSnapshot(w *bufio.Writer, snap chat.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}
