package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/domain"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/metrics"
)

func TestWebhookSinkSignsPayload(t *testing.T) {
	var gotBody []byte
	var gotSig string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get("X-Dispatch-Signature")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL, "shhh", metrics.NewNoopSink())

	job := &domain.Job{
		ID:           uuid.New(),
		TechnicianID: uuid.New(),
		Address:      "100 N Main St, Phoenix, AZ",
		Status:       domain.StatusEnRoute,
	}
	sink.NotifyStatusChange(context.Background(), job, domain.StatusEnRoute, domain.StatusInProgress)

	if len(gotBody) == 0 {
		t.Fatal("webhook was not called")
	}
	if !VerifySignature("shhh", gotBody, gotSig) {
		t.Fatal("signature does not verify")
	}
}

func TestWebhookSinkSwallowsDeliveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL, "shhh", metrics.NewNoopSink())
	job := &domain.Job{ID: uuid.New(), TechnicianID: uuid.New()}

	// Must not panic or propagate anything.
	sink.NotifyStatusChange(context.Background(), job, domain.StatusInProgress, domain.StatusCompleted)
}
