package tunnel

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"sync"

	"golang.ngrok.com/ngrok"
	"golang.ngrok.com/ngrok/config"
)

var ErrAlreadyForwarding = errors.New("tunnel: already forwarding")

// Ngrok opens a public ngrok endpoint that forwards to a local port. One
// forwarder per process; it lives until Close.
type Ngrok struct {
	mu  sync.Mutex
	fwd ngrok.Forwarder
}

func NewNgrok() *Ngrok {
	return &Ngrok{}
}

// Cleanup kills stray ngrok agents that may still hold the endpoint.
// Best-effort: errors are ignored.
func (n *Ngrok) Cleanup() {
	name, args := "pkill", []string{"ngrok"}
	if runtime.GOOS == "windows" {
		name, args = "taskkill", []string{"/f", "/im", "ngrok.exe"}
	}
	_ = exec.Command(name, args...).Run()
}

func (n *Ngrok) Forward(ctx context.Context, authToken string, port int) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fwd != nil {
		return "", ErrAlreadyForwarding
	}

	backend, err := url.Parse(fmt.Sprintf("http://localhost:%d", port))
	if err != nil {
		return "", err
	}
	fwd, err := ngrok.ListenAndForward(ctx, backend, config.HTTPEndpoint(), ngrok.WithAuthtoken(authToken))
	if err != nil {
		return "", fmt.Errorf("ngrok forward port=%d: %w", port, err)
	}
	n.fwd = fwd
	return fwd.URL(), nil
}

func (n *Ngrok) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fwd == nil {
		return nil
	}
	err := n.fwd.Close()
	n.fwd = nil
	return err
}
