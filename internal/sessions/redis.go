package sessions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps sessions in Redis, one list for the transcript and
// one string for the document, both under the session's TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func turnsKey(sessionID string) string {
	return "session:" + sessionID + ":turns"
}

func documentKey(sessionID string) string {
	return "session:" + sessionID + ":doc"
}

func (s *RedisStore) AppendTurn(ctx context.Context, sessionID string, turn Turn) error {
	raw, err := json.Marshal(turn)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, turnsKey(sessionID), raw)
	pipe.Expire(ctx, turnsKey(sessionID), s.ttl)
	pipe.Expire(ctx, documentKey(sessionID), s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Transcript(ctx context.Context, sessionID string) ([]Turn, error) {
	raw, err := s.client.LRange(ctx, turnsKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrSessionNotFound
	}

	s.client.Expire(ctx, turnsKey(sessionID), s.ttl)

	turns := make([]Turn, 0, len(raw))
	for _, item := range raw {
		var turn Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (s *RedisStore) SetDocument(ctx context.Context, sessionID, text string) error {
	return s.client.Set(ctx, documentKey(sessionID), text, s.ttl).Err()
}

func (s *RedisStore) Document(ctx context.Context, sessionID string) (string, error) {
	text, err := s.client.Get(ctx, documentKey(sessionID)).Result()
	if err == redis.Nil {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", err
	}

	s.client.Expire(ctx, documentKey(sessionID), s.ttl)

	return text, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, turnsKey(sessionID), documentKey(sessionID)).Err()
}
