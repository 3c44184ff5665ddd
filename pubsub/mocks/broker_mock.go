package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockBroker struct {
	mock.Mock
}

func (m *MockBroker) Publish(ctx context.Context, topic string, message []byte) error {
	args := m.Called(ctx, topic, message)
	return args.Error(0)
}

func (m *MockBroker) Subscribe(ctx context.Context, topic string, handler func(message []byte)) error {
	args := m.Called(ctx, topic, handler)
	return args.Error(0)
}
