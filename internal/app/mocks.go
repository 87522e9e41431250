package app

import (
	"studwork_backend/internal/email"
	"studwork_backend/internal/logger"
)

// MockEmailProvider logs instead of sending. Used outside production and in
// the integration tests.
type MockEmailProvider struct{}

func (m *MockEmailProvider) Send(msg *email.Message) error {
	logger.Info("[MOCK EMAIL]", "to", msg.To, "subject", msg.Subject)
	return nil
}
