package notification

import "context"

// ServerContract define the local webhook listener responsibility.
type ServerContract interface {
	Start(port int) error
	Shutdown(ctx context.Context) error
}

// TunnelContract define the public endpoint responsibility.
type TunnelContract interface {
	Cleanup()
	Forward(ctx context.Context, authToken string, port int) (string, error)
	Close() error
}
