package chat

import "sync"

// Conversation is the append-only, in-memory transcript of one session.
// The only removal it supports is of the trailing loading placeholder.
type Conversation struct {
	mu       sync.RWMutex
	messages []Message
}

// NewConversation returns a conversation seeded with the given messages.
func NewConversation(seed ...Message) *Conversation {
	messages := make([]Message, 0, len(seed)+4)
	messages = append(messages, seed...)
	return &Conversation{messages: messages}
}

// Append adds m to the end of the transcript.
func (c *Conversation) Append(m Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, m)
}

// RemoveTrailingPlaceholder removes and returns the last message, which must
// be a loading placeholder. Anything else is left in place and
// ErrPlaceholderMismatch is returned.
func (c *Conversation) RemoveTrailingPlaceholder() (Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.messages)
	if n == 0 || !c.messages[n-1].Loading {
		return Message{}, ErrPlaceholderMismatch
	}

	last := c.messages[n-1]
	c.messages = c.messages[:n-1]
	return last, nil
}

// HasPlaceholder reports whether the trailing message is a loading placeholder.
func (c *Conversation) HasPlaceholder() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := len(c.messages)
	return n > 0 && c.messages[n-1].Loading
}

// Messages returns a copy of the transcript, oldest first.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages in the transcript.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}
