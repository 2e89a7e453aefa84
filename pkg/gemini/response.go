package gemini

import "github.com/tidwall/gjson"

// answerPath locates the first text part of the first candidate.
const answerPath = "candidates.0.content.parts.0.text"

// extractAnswer returns the answer text from a generateContent response body.
func extractAnswer(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", &ResponseShapeError{Reason: "response is not valid JSON", Body: truncate(string(body), maxErrorBody)}
	}

	if !gjson.GetBytes(body, "candidates.0.content.parts").IsArray() {
		if reason := gjson.GetBytes(body, "promptFeedback.blockReason"); reason.Exists() {
			return "", &ResponseShapeError{Reason: "prompt blocked: " + reason.String()}
		}
		return "", &ResponseShapeError{Reason: "missing candidates[0].content.parts", Body: truncate(string(body), maxErrorBody)}
	}

	text := gjson.GetBytes(body, answerPath)
	if text.Type != gjson.String {
		return "", &ResponseShapeError{Reason: "first part has no text", Body: truncate(string(body), maxErrorBody)}
	}

	return text.String(), nil
}
