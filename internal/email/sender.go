// Package email defines the transactional-email collaborator. Lifecycle
// transitions hand a template key and variables to a Sender; rendering and
// actual delivery live behind the interface and are best-effort everywhere.
package email

import (
	"context"

	"go.uber.org/zap"
)

// Template keys for the transactional emails attached to session and
// connection events.
const (
	TemplateSessionRequested = "session_requested"
	TemplateRequestApproved  = "request_approved"
	TemplateRequestDeclined  = "request_declined"
	TemplateSessionStarted   = "session_started"
	TemplateSessionCompleted = "session_completed"
	TemplateSessionCancelled = "session_cancelled"
)

type Sender interface {
	Send(ctx context.Context, templateKey, recipient string, vars map[string]string) error
}

// LogSender records each dispatch instead of delivering it. It stands in for
// the mail provider in environments without SMTP credentials and keeps the
// call sites honest about the Sender contract.
type LogSender struct {
	logger *zap.SugaredLogger
}

func NewLogSender(logger *zap.SugaredLogger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, templateKey, recipient string, vars map[string]string) error {
	s.logger.Infow("email dispatched",
		"template", templateKey,
		"recipient", recipient,
		"vars", vars,
	)
	return nil
}
