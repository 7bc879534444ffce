package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tedinroc/line-gpt-bot/internal/line"
)

type recordingProcessor struct {
	events []line.Event
}

func (p *recordingProcessor) HandleEvent(_ context.Context, ev line.Event) {
	p.events = append(p.events, ev)
}

func signedRequest(t *testing.T, secret, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(body))
	req.Header.Set("X-Line-Signature", line.Sign(secret, []byte(body)))
	return req
}

func TestCallbackDispatchesVerifiedEvents(t *testing.T) {
	const secret = "channel-secret"
	body := `{"destination":"U_bot","events":[
		{"type":"message","replyToken":"tok1","source":{"type":"user","userId":"U_alice"},"message":{"id":"m1","type":"text","text":"Hello"}},
		{"type":"message","replyToken":"tok2","source":{"type":"user","userId":"U_bob"},"message":{"id":"m2","type":"image"}}
	]}`

	proc := &recordingProcessor{}
	h := NewHandler(secret, proc, nil, nil)

	rr := httptest.NewRecorder()
	h.Callback(rr, signedRequest(t, secret, body))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if rr.Body.String() != "OK" {
		t.Fatalf("body = %q, want OK", rr.Body.String())
	}
	if len(proc.events) != 2 {
		t.Fatalf("dispatched %d events, want 2", len(proc.events))
	}
	if proc.events[0].Message.Text != "Hello" || proc.events[1].Kind() != line.KindImage {
		t.Fatalf("events dispatched out of shape: %+v", proc.events)
	}
}

func TestCallbackRejectsBadSignature(t *testing.T) {
	body := `{"events":[]}`
	req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(body))
	req.Header.Set("X-Line-Signature", line.Sign("wrong-secret", []byte(body)))

	proc := &recordingProcessor{}
	h := NewHandler("channel-secret", proc, nil, nil)

	rr := httptest.NewRecorder()
	h.Callback(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if len(proc.events) != 0 {
		t.Fatalf("no events may be processed on a bad signature, got %d", len(proc.events))
	}
}

func TestCallbackRejectsMissingSignature(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(`{"events":[]}`))

	h := NewHandler("channel-secret", &recordingProcessor{}, nil, nil)
	rr := httptest.NewRecorder()
	h.Callback(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestCallbackRejectsTamperedBody(t *testing.T) {
	const secret = "channel-secret"
	original := `{"events":[{"type":"message","replyToken":"tok","source":{"userId":"U_alice"},"message":{"id":"m1","type":"text","text":"hi"}}]}`
	tampered := strings.Replace(original, "hi", "ha", 1)

	req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(tampered))
	req.Header.Set("X-Line-Signature", line.Sign(secret, []byte(original)))

	proc := &recordingProcessor{}
	h := NewHandler(secret, proc, nil, nil)
	rr := httptest.NewRecorder()
	h.Callback(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if len(proc.events) != 0 {
		t.Fatalf("tampered body must not reach the processor")
	}
}

func TestCallbackEmptyEventsList(t *testing.T) {
	const secret = "channel-secret"
	proc := &recordingProcessor{}
	h := NewHandler(secret, proc, nil, nil)

	rr := httptest.NewRecorder()
	h.Callback(rr, signedRequest(t, secret, `{"events":[]}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if len(proc.events) != 0 {
		t.Fatalf("expected no events, got %d", len(proc.events))
	}
}

func TestCallbackMalformedJSON(t *testing.T) {
	const secret = "channel-secret"
	h := NewHandler(secret, &recordingProcessor{}, nil, nil)

	rr := httptest.NewRecorder()
	h.Callback(rr, signedRequest(t, secret, `{"events":`))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestCallbackMethodNotAllowed(t *testing.T) {
	h := NewHandler("channel-secret", &recordingProcessor{}, nil, nil)

	rr := httptest.NewRecorder()
	h.Callback(rr, httptest.NewRequest(http.MethodGet, "/callback", nil))

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rr.Code)
	}
}
