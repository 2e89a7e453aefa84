package chat

import "fmt"

const (
	// Greeting seeds every new conversation.
	Greeting = "Hello! I'm your AI assistant with image recognition capabilities. You can send me images to analyze them."

	// DefaultImagePrompt is shown as the user's text when an image is sent without any.
	DefaultImagePrompt = "Can you analyze this image?"

	// AnalysisApology replaces the reply when the Analyzer fails.
	AnalysisApology = "Sorry, I couldn't analyze the image. There might be an issue with the Gemini API connection or the API key may be invalid."

	// GenericApology replaces the reply on any other submission failure.
	GenericApology = "Sorry, there was an error processing your request. Please try again with a different image or message."
)

// Acknowledge is the canned reply to a text-only message.
func Acknowledge(text string) string {
	return fmt.Sprintf("Thank you for your message: \"%s\". How else can I assist you?", text)
}
