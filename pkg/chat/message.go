// Package chat implements the conversation core of souvchat: an in-memory
// message store and the controller that sequences one submission at a time
// against an image Analyzer.
package chat

import (
	"strings"
	"time"
)

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PartType discriminates the content of a Part.
type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image"
)

// ImageRef is a locally derived, displayable handle to an image the user
// attached. It is not the encoding sent to the remote service.
type ImageRef struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Part is a single item of message content.
type Part struct {
	Type  PartType  `json:"type"`
	Text  string    `json:"text,omitempty"`
	Image *ImageRef `json:"image,omitempty"`
}

// TextPart returns a text content item.
func TextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}

// ImagePart returns an image content item.
func ImagePart(ref ImageRef) Part {
	return Part{Type: PartImage, Image: &ref}
}

// Message is one entry in a Conversation. Role and Parts are fixed at
// creation. A placeholder is an assistant message with no parts and
// Loading set; it is removed and never mutated.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Parts     []Part    `json:"content"`
	Loading   bool      `json:"is_loading,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Text joins the text parts of the message with newlines.
func (m Message) Text() string {
	var texts []string
	for _, p := range m.Parts {
		if p.Type == PartText {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// Images returns the image references carried by the message, in order.
func (m Message) Images() []ImageRef {
	var refs []ImageRef
	for _, p := range m.Parts {
		if p.Type == PartImage && p.Image != nil {
			refs = append(refs, *p.Image)
		}
	}
	return refs
}
