// Package aiops implements the AI operations: each one builds a prompt, runs
// it through the recovery controller and validates the result into a fully
// populated output.
package aiops

import (
	"time"

	"career-backend/internal/aiops/recovery"
)

// Service runs operations against one retry controller.
type Service struct {
	ctrl *recovery.Controller
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(ctrl *recovery.Controller) *Service {
	return &Service{ctrl: ctrl, now: time.Now}
}
