// Package gemini provides a client for the Gemini generateContent endpoint,
// used as the image Analyzer behind the chat controller.
package gemini

// GenerateContentRequest is the body of a generateContent call.
type GenerateContentRequest struct {
	Contents []Content `json:"contents"`
}

// Content is one turn of input.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is a single input item, either text or inline binary data.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

// InlineData carries base64-encoded bytes with their MIME type.
type InlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

// NewImageRequest builds a single-turn request with a text prompt followed by an image.
func NewImageRequest(prompt, mimeType, data string) GenerateContentRequest {
	return GenerateContentRequest{
		Contents: []Content{
			{
				Parts: []Part{
					{Text: prompt},
					{InlineData: &InlineData{MIMEType: mimeType, Data: data}},
				},
			},
		},
	}
}
