package notification

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type ServerMock struct {
	mock.Mock
	ServerContract
}

func (m *ServerMock) Start(port int) error {
	args := m.Called(port)
	return args.Error(0)
}

func (m *ServerMock) Shutdown(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type TunnelMock struct {
	mock.Mock
	TunnelContract
}

func (m *TunnelMock) Cleanup() {
	m.Called()
}

func (m *TunnelMock) Forward(ctx context.Context, authToken string, port int) (string, error) {
	args := m.Called(ctx, authToken, port)
	return args.String(0), args.Error(1)
}

func (m *TunnelMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
