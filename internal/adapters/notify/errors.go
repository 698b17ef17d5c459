package notify

import "errors"

var (
	// ErrCompose indicates the message could not be built from the
	// configured addresses.
	ErrCompose = errors.New("failed to compose notification")

	// ErrSend indicates the relay rejected or never received the message.
	ErrSend = errors.New("failed to send notification")
)
