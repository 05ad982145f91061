package resolver

import (
	"context"
	"log/slog"
	"time"

	pkgredis "github.com/vocabworks/vocab-ranking-platform/pkg/redis"
)

const memoKeyPrefix = "lemma:"

// RedisMemoStore shares the form -> lemma table across worker processes
// via Redis. Lookups are best effort: any Redis error is logged and
// reported as a miss, so the resolver falls back to computing the lemma
// locally rather than failing the ranking request.
type RedisMemoStore struct {
	client  *pkgredis.Client
	ttl     time.Duration
	timeout time.Duration
	logger  *slog.Logger
}

// NewRedisMemoStore creates a Redis-backed memo store. A zero ttl keeps
// entries indefinitely, matching the in-process store's semantics.
func NewRedisMemoStore(client *pkgredis.Client, ttl time.Duration) *RedisMemoStore {
	return &RedisMemoStore{
		client:  client,
		ttl:     ttl,
		timeout: 500 * time.Millisecond,
		logger:  slog.Default().With("component", "lemma-memo"),
	}
}

func (s *RedisMemoStore) Get(form string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	lemma, err := s.client.Get(ctx, memoKeyPrefix+form)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			s.logger.Error("memo get failed", "form", form, "error", err)
		}
		return "", false
	}
	return lemma, true
}

func (s *RedisMemoStore) Put(form string, lemma string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.client.Set(ctx, memoKeyPrefix+form, lemma, s.ttl); err != nil {
		s.logger.Error("memo set failed", "form", form, "error", err)
	}
}
