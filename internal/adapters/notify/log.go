package notify

import (
	"context"
	"log"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/domain"
)

// LogSink records status changes to the process log. Used when no webhook
// endpoint is configured.
type LogSink struct{}

func NewLogSink() *LogSink { return &LogSink{} }

func (*LogSink) NotifyStatusChange(_ context.Context, job *domain.Job, previous, next domain.JobStatus) {
	log.Printf("status change job_id=%s technician_id=%s %s -> %s", job.ID, job.TechnicianID, previous, next)
}
