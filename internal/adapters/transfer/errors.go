package transfer

import "errors"

var (
	// ErrAuth indicates the private key could not be read or parsed.
	ErrAuth = errors.New("sftp authentication failed")

	// ErrDial indicates the endpoint could not be reached or the SFTP
	// session could not be established.
	ErrDial = errors.New("sftp connection failed")

	// ErrTransfer indicates a file could not be copied.
	ErrTransfer = errors.New("sftp transfer failed")
)
