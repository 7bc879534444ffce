package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// transcriptTTL is the fixed retention window; every write resets it, and an
// expired transcript is indistinguishable from an absent one.
const transcriptTTL = 3600 * time.Second

const transcriptKeyPrefix = "transcript:"

// TranscriptStore holds the rolling conversation text for each user.
type TranscriptStore interface {
	// Get returns the stored transcript, or the empty string when the user
	// has none (absent and expired are equivalent).
	Get(ctx context.Context, userID string) (string, error)
	// Set overwrites the transcript unconditionally and resets its expiry.
	Set(ctx context.Context, userID, text string) error
}

// RedisTranscriptStore is the Redis-backed TranscriptStore used in production.
type RedisTranscriptStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

// NewRedisTranscriptStore wraps redisClient as a TranscriptStore.
func NewRedisTranscriptStore(redisClient *redis.Client) *RedisTranscriptStore {
	if redisClient == nil {
		panic("conversation: redis client cannot be nil")
	}
	return &RedisTranscriptStore{
		redis:  redisClient,
		tracer: otel.Tracer("linegpt.internal.conversation.transcript"),
	}
}

func (s *RedisTranscriptStore) Get(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", errors.New("conversation: transcript userID required")
	}

	ctx, span := s.tracer.Start(ctx, "conversation.transcript.get")
	defer span.End()

	text, err := s.redis.Get(ctx, transcriptKey(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		span.RecordError(err)
		return "", fmt.Errorf("conversation: load transcript: %w", err)
	}
	return text, nil
}

func (s *RedisTranscriptStore) Set(ctx context.Context, userID, text string) error {
	if userID == "" {
		return errors.New("conversation: transcript userID required")
	}

	ctx, span := s.tracer.Start(ctx, "conversation.transcript.set")
	defer span.End()

	if err := s.redis.Set(ctx, transcriptKey(userID), text, transcriptTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: persist transcript: %w", err)
	}
	return nil
}

func transcriptKey(userID string) string {
	return transcriptKeyPrefix + userID
}
