package commandbus

import "errors"

var (
	// ErrInvalidTopic is returned for messages outside the command tree.
	ErrInvalidTopic = errors.New("commandbus: invalid command topic")

	// ErrInvalidPayload is returned when a command body is not valid JSON.
	ErrInvalidPayload = errors.New("commandbus: invalid command payload")
)
