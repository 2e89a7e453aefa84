package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySubmission is returned by Submit when neither text nor an image was given.
	ErrEmptySubmission = errors.New("chat: empty submission")

	// ErrBusy is returned by Submit while another submission is being resolved.
	ErrBusy = errors.New("chat: a submission is already in flight")

	// ErrPlaceholderMismatch is returned when the trailing message is not a placeholder.
	ErrPlaceholderMismatch = errors.New("chat: trailing message is not a loading placeholder")
)

// EncodingError is returned when an image blob could not be read for encoding.
type EncodingError struct {
	Name string
	Err  error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("chat: encode image %q: %v", e.Name, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}
