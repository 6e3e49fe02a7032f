package ports

import (
	"context"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/domain"
)

// Receives job status-change signals. Implementations are fire-and-forget:
// they must not block the lifecycle transition and must swallow their own
// delivery failures (logging is fine, propagating is not).
type NotificationSink interface {
	NotifyStatusChange(ctx context.Context, job *domain.Job, previous, next domain.JobStatus)
}
