package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Analyzer describes an image and returns natural-language text.
type Analyzer interface {
	Analyze(ctx context.Context, image EncodedImage) (string, error)
}

// httpStatusError is implemented by analyzer errors that carry an upstream
// HTTP status.
type httpStatusError interface {
	error
	HTTPStatusCode() int
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(ctx context.Context, image EncodedImage) (string, error)

func (f AnalyzerFunc) Analyze(ctx context.Context, image EncodedImage) (string, error) {
	return f(ctx, image)
}

// Snapshot is a point-in-time view of the controller state. Version grows
// with every state change, so a reader holding two snapshots keeps the one
// with the higher Version.
type Snapshot struct {
	Version    uint64    `json:"version"`
	Messages   []Message `json:"messages"`
	Processing bool      `json:"processing"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithGreeting replaces the assistant message that seeds the conversation.
func WithGreeting(greeting string) Option {
	return func(c *Controller) {
		c.greeting = greeting
	}
}

// WithClock overrides the time source used to stamp messages.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// Controller owns a Conversation and sequences submissions against it.
// At most one submission is resolving at any time; further submissions are
// rejected with ErrBusy rather than queued.
type Controller struct {
	analyzer Analyzer
	logger   *zap.Logger
	greeting string
	now      func() time.Time

	// mu guards processing, version, observers and the multi-step mutations of conversation.
	mu           sync.Mutex
	conversation *Conversation
	processing   bool
	version      uint64
	observers    map[int]func(Snapshot)
	nextObserver int

	// notifyMu keeps observer deliveries in state order.
	notifyMu sync.Mutex
}

// NewController creates a controller with a freshly seeded conversation.
func NewController(analyzer Analyzer, logger *zap.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Controller{
		analyzer:  analyzer,
		logger:    logger,
		greeting:  Greeting,
		now:       time.Now,
		observers: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.conversation = NewConversation(c.newMessage(RoleAssistant, TextPart(c.greeting)))
	return c
}

// Submit records the user's message, shows a loading placeholder and
// resolves the reply in the background. The returned channel is closed once
// the placeholder has been replaced by the reply.
//
// Submit is a no-op returning ErrEmptySubmission when text is blank and image
// is nil, and ErrBusy while an earlier submission is unresolved.
//
// Cancelling ctx does not abort a submission once accepted.
func (c *Controller) Submit(ctx context.Context, text string, image Blob) (<-chan struct{}, error) {
	if strings.TrimSpace(text) == "" && image == nil {
		return nil, ErrEmptySubmission
	}

	c.mu.Lock()
	if c.processing {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.processing = true
	c.conversation.Append(c.userMessage(text, image))
	c.conversation.Append(c.placeholder())
	c.version++
	c.mu.Unlock()

	c.logger.Debug("submission accepted",
		zap.Int("text_len", len(text)),
		zap.Bool("image", image != nil),
	)
	c.publish()

	done := make(chan struct{})
	go c.resolve(context.WithoutCancel(ctx), text, image, done)
	return done, nil
}

// Processing reports whether a submission is currently resolving.
func (c *Controller) Processing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.processing
}

// Messages returns a copy of the conversation, oldest first.
func (c *Controller) Messages() []Message {
	return c.conversation.Messages()
}

// Snapshot returns the current messages and processing flag together.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Version:    c.version,
		Messages:   c.conversation.Messages(),
		Processing: c.processing,
	}
}

// Subscribe registers fn to receive a Snapshot after every state change.
// Deliveries are serialized and in order. fn must not call Submit
// synchronously. The returned func removes the subscription.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextObserver
	c.nextObserver++
	c.observers[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.observers, id)
			c.mu.Unlock()
		})
	}
}

// resolve runs the asynchronous phase of a submission. Whatever happens,
// the placeholder is replaced and the processing flag released.
func (c *Controller) resolve(ctx context.Context, text string, image Blob, done chan struct{}) {
	started := c.now()
	reply := GenericApology

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("submission failed unexpectedly", zap.Any("panic", r))
			reply = GenericApology
		}
		c.settle(reply)
		c.logger.Debug("submission settled", zap.Duration("duration", c.now().Sub(started)))
		close(done)
	}()

	reply = c.reply(ctx, text, image)
}

func (c *Controller) reply(ctx context.Context, text string, image Blob) string {
	if image == nil {
		return Acknowledge(text)
	}

	encoded, err := EncodeBlob(image)
	if err != nil {
		c.logger.Warn("failed to encode image", zap.String("name", image.Name()), zap.Error(err))
		return GenericApology
	}

	answer, err := c.analyzer.Analyze(ctx, encoded)
	if err != nil {
		fields := []zap.Field{zap.String("name", image.Name()), zap.Error(err)}
		var statusErr httpStatusError
		if errors.As(err, &statusErr) {
			fields = append(fields, zap.Int("status", statusErr.HTTPStatusCode()))
		}
		c.logger.Error("image analysis failed", fields...)
		return AnalysisApology
	}

	return answer
}

func (c *Controller) settle(reply string) {
	c.mu.Lock()
	if _, err := c.conversation.RemoveTrailingPlaceholder(); err != nil {
		c.logger.Error("placeholder missing on settle", zap.Error(err))
	}
	c.conversation.Append(c.newMessage(RoleAssistant, TextPart(reply)))
	c.processing = false
	c.version++
	c.mu.Unlock()

	c.publish()
}

func (c *Controller) publish() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	snap := c.snapshotLocked()
	observers := make([]func(Snapshot), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}

func (c *Controller) userMessage(text string, image Blob) Message {
	if image == nil {
		return c.newMessage(RoleUser, TextPart(text))
	}

	if text == "" {
		text = DefaultImagePrompt
	}
	alt := image.Name()
	if alt == "" {
		alt = "Uploaded image"
	}
	return c.newMessage(RoleUser, TextPart(text), ImagePart(ImageRef{URL: image.URL(), Alt: alt}))
}

func (c *Controller) placeholder() Message {
	m := c.newMessage(RoleAssistant)
	m.Loading = true
	return m
}

func (c *Controller) newMessage(role Role, parts ...Part) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Parts:     append([]Part{}, parts...),
		CreatedAt: c.now(),
	}
}
