package sim

// SendError marks a failed send or receive.
type SendError struct{}

// NewSendError creates a SendError
func NewSendError() *SendError {
	return new(SendError)
}

// A Connection is responsible for delivering messages to their destinations.
type Connection interface {
	Named
	Hookable

	PlugIn(port Port)

	// NotifyAvailable is called by a port to notify the connection that the
	// port can receive messages again.
	NotifyAvailable(port Port)

	// NotifySend is called by a port to notify the connection that there are
	// messages to deliver.
	NotifySend()
}
