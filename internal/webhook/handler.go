package webhook

import (
	"context"
	"io"
	"net/http"

	"github.com/tedinroc/line-gpt-bot/internal/line"
	"github.com/tedinroc/line-gpt-bot/internal/observability/metrics"
	"github.com/tedinroc/line-gpt-bot/pkg/logging"
)

// maxBodyBytes bounds the webhook payload we are willing to buffer for
// signature verification.
const maxBodyBytes = 1 << 20

// EventProcessor consumes one verified webhook event.
type EventProcessor interface {
	HandleEvent(ctx context.Context, ev line.Event)
}

// Handler terminates the LINE webhook: verifies the channel signature over
// the raw body, parses the event envelope, and hands each event to the
// processor. It always answers 200 "OK" once the signature checks out, even
// when individual events fail downstream; the platform retries on non-2xx
// and retries are unwanted here.
type Handler struct {
	channelSecret string
	processor     EventProcessor
	metrics       *metrics.RelayMetrics
	logger        *logging.Logger
}

func NewHandler(channelSecret string, processor EventProcessor, m *metrics.RelayMetrics, logger *logging.Logger) *Handler {
	if channelSecret == "" {
		panic("webhook: channel secret cannot be empty")
	}
	if processor == nil {
		panic("webhook: event processor cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{channelSecret: channelSecret, processor: processor, metrics: m, logger: logger}
}

// Callback is the POST /callback endpoint.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("X-Line-Signature")
	if !line.VerifySignature(h.channelSecret, body, signature) {
		h.logger.Warn("rejected webhook with invalid signature", "remote_ip", r.RemoteAddr)
		h.metrics.ObserveInbound("unknown", "rejected")
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	payload, err := line.ParseWebhook(body)
	if err != nil {
		h.logger.Warn("failed to parse webhook payload", "error", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	for _, ev := range payload.Events {
		h.metrics.ObserveInbound(string(ev.Kind()), "accepted")
		h.processor.HandleEvent(r.Context(), ev)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
