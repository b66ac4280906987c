package infra

// dlq.go: dead letter lists in Redis, one per source (dlq:<source>). Entries
// are kept for manual inspection and never retried automatically.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// DLQEntry wraps a failed job or record with debugging metadata.
type DLQEntry struct {
	Source   string          `json:"source"`
	Kind     string          `json:"kind"`
	Payload  json.RawMessage `json:"payload"`
	Reason   string          `json:"reason"`
	FailedAt string          `json:"failed_at"` // RFC 3339
	Attempts int             `json:"attempts"`
}

// SendToDLQ pushes an entry to dlq:<source>. A nil client only logs.
func SendToDLQ(ctx context.Context, rdb *redis.Client, source, kind string, payload any, reason string, attempts int) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("source", source).Msg("dlq: failed to marshal payload")
		return
	}
	entry := DLQEntry{
		Source:   source,
		Kind:     kind,
		Payload:  raw,
		Reason:   reason,
		FailedAt: time.Now().UTC().Format(time.RFC3339),
		Attempts: attempts,
	}

	if rdb == nil {
		log.Warn().Str("source", source).Str("kind", kind).Str("reason", reason).Msg("dlq: redis unavailable, entry dropped")
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("source", source).Msg("dlq: failed to marshal entry")
		return
	}
	key := DLQPrefix + source
	if err := rdb.LPush(ctx, key, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", key).Msg("dlq: failed to push entry")
		return
	}

	log.Warn().
		Str("source", source).
		Str("kind", kind).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: entry moved to dead letter list")
}

// DLQLength returns the number of entries in dlq:<source>.
func DLQLength(ctx context.Context, rdb *redis.Client, source string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+source).Result()
}
