package conversation

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tedinroc/line-gpt-bot/internal/imaging"
	"github.com/tedinroc/line-gpt-bot/internal/line"
	"github.com/tedinroc/line-gpt-bot/internal/observability/metrics"
	"github.com/tedinroc/line-gpt-bot/pkg/logging"
)

// Fixed user-facing fallback texts. Any provider or store failure maps to one
// of these; the transcript is left untouched so a failed turn does not
// pollute future context.
const (
	fallbackTextReply  = "發生錯誤，請稍後再試。"
	fallbackImageReply = "圖片分析失敗，請稍後再試。"
)

// ContentFetcher retrieves binary message content from the messaging
// transport.
type ContentFetcher interface {
	GetMessageContent(ctx context.Context, messageID string) ([]byte, error)
}

// Replier sends exactly one text reply per reply token.
type Replier interface {
	ReplyText(ctx context.Context, replyToken, text string) error
}

// Orchestrator runs the read-generate-write-reply cycle for each verified
// inbound event. Each event is processed at most once, synchronously, within
// the handling of one webhook call; there is no retry and no mid-flight
// abort.
type Orchestrator struct {
	store   TranscriptStore
	llm     LLMClient
	content ContentFetcher
	replier Replier
	metrics *metrics.RelayMetrics
	logger  *logging.Logger
	tracer  trace.Tracer

	maxTranscriptChars int
}

// NewOrchestrator wires the conversation cycle. metrics may be nil.
func NewOrchestrator(store TranscriptStore, llm LLMClient, content ContentFetcher, replier Replier, maxTranscriptChars int, m *metrics.RelayMetrics, logger *logging.Logger) *Orchestrator {
	if store == nil {
		panic("conversation: transcript store cannot be nil")
	}
	if llm == nil {
		panic("conversation: llm client cannot be nil")
	}
	if content == nil {
		panic("conversation: content fetcher cannot be nil")
	}
	if replier == nil {
		panic("conversation: replier cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Orchestrator{
		store:              store,
		llm:                llm,
		content:            content,
		replier:            replier,
		metrics:            m,
		logger:             logger,
		tracer:             otel.Tracer("linegpt.internal.conversation.orchestrator"),
		maxTranscriptChars: maxTranscriptChars,
	}
}

// HandleEvent routes one verified event by message kind. Kinds outside the
// closed Text/Image set are dropped without a reply; that is not a fault.
func (o *Orchestrator) HandleEvent(ctx context.Context, ev line.Event) {
	switch ev.Kind() {
	case line.KindText:
		o.handleText(ctx, ev)
	case line.KindImage:
		o.handleImage(ctx, ev)
	default:
		o.logger.Debug("ignoring unsupported event", "event_type", ev.Type, "message_type", ev.Message.Type)
		o.metrics.ObserveInbound(string(line.KindOther), "ignored")
	}
}

func (o *Orchestrator) handleText(ctx context.Context, ev line.Event) {
	ctx, span := o.tracer.Start(ctx, "conversation.text_turn")
	defer span.End()
	span.SetAttributes(attribute.String("linegpt.user_id", ev.Source.UserID))

	userID := ev.Source.UserID
	userText := ev.Message.Text

	history, err := o.store.Get(ctx, userID)
	if err != nil {
		span.RecordError(err)
		o.logger.Error("failed to load transcript", "error", err, "user_id", userID)
		o.failTurn(ctx, ev, line.KindText)
		return
	}

	prompt := BuildTextPrompt(history, userText)

	start := time.Now()
	reply, err := o.llm.CompleteText(ctx, textPersona, prompt)
	o.metrics.ObserveCompletionLatency(string(line.KindText), time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		o.logger.Error("text completion failed", "error", err, "user_id", userID)
		o.failTurn(ctx, ev, line.KindText)
		return
	}

	transcript := TrimTranscript(AppendTurn(history, userText, reply), o.maxTranscriptChars)
	if err := o.store.Set(ctx, userID, transcript); err != nil {
		span.RecordError(err)
		o.logger.Error("failed to persist transcript", "error", err, "user_id", userID)
		o.failTurn(ctx, ev, line.KindText)
		return
	}

	o.metrics.ObserveInbound(string(line.KindText), "ok")
	o.reply(ctx, ev.ReplyToken, reply)
}

func (o *Orchestrator) handleImage(ctx context.Context, ev line.Event) {
	ctx, span := o.tracer.Start(ctx, "conversation.image_turn")
	defer span.End()
	span.SetAttributes(
		attribute.String("linegpt.user_id", ev.Source.UserID),
		attribute.String("linegpt.message_id", ev.Message.ID),
	)

	userID := ev.Source.UserID

	raw, err := o.content.GetMessageContent(ctx, ev.Message.ID)
	if err != nil {
		span.RecordError(err)
		o.logger.Error("failed to fetch image content", "error", err, "message_id", ev.Message.ID)
		o.failTurn(ctx, ev, line.KindImage)
		return
	}

	jpegBytes, err := imaging.NormalizeJPEG(raw)
	if err != nil {
		span.RecordError(err)
		o.logger.Error("failed to normalize image", "error", err, "message_id", ev.Message.ID)
		o.failTurn(ctx, ev, line.KindImage)
		return
	}

	start := time.Now()
	reply, err := o.llm.CompleteImage(ctx, imagePersona, imageInstruction, ImageDataURI(jpegBytes))
	o.metrics.ObserveCompletionLatency(string(line.KindImage), time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		o.logger.Error("image completion failed", "error", err, "user_id", userID)
		o.failTurn(ctx, ev, line.KindImage)
		return
	}

	history, err := o.store.Get(ctx, userID)
	if err != nil {
		span.RecordError(err)
		o.logger.Error("failed to load transcript", "error", err, "user_id", userID)
		o.failTurn(ctx, ev, line.KindImage)
		return
	}

	// Only the placeholder goes on the transcript, never the pixel payload.
	transcript := TrimTranscript(AppendTurn(history, imagePlaceholder, reply), o.maxTranscriptChars)
	if err := o.store.Set(ctx, userID, transcript); err != nil {
		span.RecordError(err)
		o.logger.Error("failed to persist transcript", "error", err, "user_id", userID)
		o.failTurn(ctx, ev, line.KindImage)
		return
	}

	o.metrics.ObserveInbound(string(line.KindImage), "ok")
	o.reply(ctx, ev.ReplyToken, reply)
}

// failTurn terminates a cycle with the kind-appropriate fallback reply,
// leaving the transcript exactly as it was before the event.
func (o *Orchestrator) failTurn(ctx context.Context, ev line.Event, kind line.MessageKind) {
	o.metrics.ObserveInbound(string(kind), "fallback")
	text := fallbackTextReply
	if kind == line.KindImage {
		text = fallbackImageReply
	}
	o.reply(ctx, ev.ReplyToken, text)
}

func (o *Orchestrator) reply(ctx context.Context, replyToken, text string) {
	if err := o.replier.ReplyText(ctx, replyToken, text); err != nil {
		// The reply token is single-use and already consumed or expired;
		// nothing further can be sent for this event.
		o.logger.Error("failed to send reply", "error", err)
		o.metrics.ObserveReply("error")
		return
	}
	o.metrics.ObserveReply("ok")
}
