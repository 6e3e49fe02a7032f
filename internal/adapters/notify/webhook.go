package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/domain"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/metrics"
)

// WebhookSink posts job status changes to a configured endpoint with an HMAC
// signature. Delivery is fire-and-forget: failures are logged and counted,
// never propagated, so a dead webhook can't block field check-ins.
type WebhookSink struct {
	client  *http.Client
	url     string
	secret  string
	metrics metrics.Sink
}

func NewWebhookSink(url, secret string, m metrics.Sink) *WebhookSink {
	return &WebhookSink{
		client:  &http.Client{Timeout: 10 * time.Second},
		url:     url,
		secret:  secret,
		metrics: m,
	}
}

type statusChangePayload struct {
	JobID          string `json:"job_id"`
	TechnicianID   string `json:"technician_id"`
	Address        string `json:"address"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
	ChangedAt      string `json:"changed_at"`
}

func (s *WebhookSink) NotifyStatusChange(ctx context.Context, job *domain.Job, previous, next domain.JobStatus) {
	payload := statusChangePayload{
		JobID:          job.ID.String(),
		TechnicianID:   job.TechnicianID.String(),
		Address:        job.Address,
		PreviousStatus: string(previous),
		NewStatus:      string(next),
		ChangedAt:      time.Now().UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("notify: marshal payload job_id=%s err=%v", job.ID, err)
		s.metrics.NotificationSent(false)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		log.Printf("notify: create request job_id=%s err=%v", job.ID, err)
		s.metrics.NotificationSent(false)
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Dispatch-Job-ID", payload.JobID)
	req.Header.Set("X-Dispatch-Signature", computeSignature(s.secret, body))

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("notify: send job_id=%s err=%v", job.ID, err)
		s.metrics.NotificationSent(false)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("notify: job_id=%s status=%d", job.ID, resp.StatusCode)
		s.metrics.NotificationSent(false)
		return
	}

	s.metrics.NotificationSent(true)
}

func computeSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature is for receivers to verify incoming notifications.
func VerifySignature(secret string, body []byte, signature string) bool {
	expected := computeSignature(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
