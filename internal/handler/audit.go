package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/school-portal/internal/model"
	"github.com/iliyamo/school-portal/internal/queue"
	"github.com/iliyamo/school-portal/internal/service"
	"github.com/iliyamo/school-portal/internal/utils"
)

// Auditor turns auth-boundary outcomes into access events.  Publishing runs
// in the background and never changes the response.  A nil *Auditor is a
// valid no-op.
type Auditor struct {
	Pub     service.Publisher
	Timeout time.Duration
}

func NewAuditor(pub service.Publisher) *Auditor {
	return &Auditor{Pub: pub, Timeout: 3 * time.Second}
}

// Record captures the event from c synchronously (echo reuses contexts after
// the handler returns) and publishes it asynchronously.
func (a *Auditor) Record(c echo.Context, kind queue.EventKind, role model.Role, token, reason string) {
	if a == nil || a.Pub == nil {
		return
	}
	ev := queue.AccessEvent{
		ID:         uuid.NewString(),
		Kind:       kind,
		Path:       c.Request().URL.Path,
		RemoteIP:   c.RealIP(),
		TokenFP:    utils.Fingerprint(token),
		Reason:     reason,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if role != model.RoleNone {
		ev.Role = string(role)
	}
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	logger := c.Logger()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := a.Pub.Publish(ctx, ev); err != nil {
			logger.Warnf("audit: publish %s event: %v", ev.Kind, err)
		}
	}()
}
