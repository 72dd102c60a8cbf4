package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"lineadvisor.app/advisor/common/id"
)

const currentDocVersion = 1

// redisDoc is the wire shape stored in Redis. A version field lets a future
// schema change migrate older documents on read instead of breaking them.
type redisDoc struct {
	Version           int       `json:"version"`
	ID                string    `json:"id"`
	Owner             string    `json:"owner"`
	IssueCode         string    `json:"issue_code"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	Status            Status    `json:"status"`
	ConversationCount int       `json:"conversation_count"`
	History           []Turn    `json:"history"`
	Metadata          Metadata  `json:"metadata"`
}

// RedisStore is the external, authoritative backend when configured: one
// JSON document per session under key "session:<id>".
type RedisStore struct {
	client          *redis.Client
	maxHistoryTurns int
	ttl             time.Duration
}

// NewRedisStore wraps an existing Redis client. ttl is applied to every
// write so abandoned sessions expire server-side even if the sweeper never
// runs against this backend.
func NewRedisStore(client *redis.Client, maxHistoryTurns int, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, maxHistoryTurns: maxHistoryTurns, ttl: ttl}
}

func key(id string) string { return "session:" + id }

func (s *RedisStore) Create(owner, issueCode string) (Session, error) {
	ctx := context.Background()
	now := time.Now()
	doc := redisDoc{
		Version:   currentDocVersion,
		ID:        newID(),
		Owner:     owner,
		IssueCode: issueCode,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    StatusActive,
		Metadata:  Metadata{Extra: make(map[string]string)},
	}
	if err := s.write(ctx, doc); err != nil {
		return Session{}, err
	}
	return fromDoc(doc), nil
}

func (s *RedisStore) write(ctx context.Context, doc redisDoc) error {
	doc.Version = currentDocVersion
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := s.client.Set(ctx, key(doc.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) read(ctx context.Context, id string) (redisDoc, error) {
	raw, err := s.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return redisDoc{}, ErrNotFound
	}
	if err != nil {
		return redisDoc{}, fmt.Errorf("session: redis get: %w", err)
	}
	var doc redisDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return redisDoc{}, fmt.Errorf("session: unmarshal: %w", err)
	}
	return migrate(doc), nil
}

// migrate upgrades an older document version in place. There is only one
// version today; this is the seam the next schema change hooks into.
func migrate(doc redisDoc) redisDoc {
	if doc.Version == 0 {
		doc.Version = currentDocVersion
	}
	return doc
}

func (s *RedisStore) Get(id string) (Session, error) {
	doc, err := s.read(context.Background(), id)
	if err != nil {
		return Session{}, err
	}
	return fromDoc(doc), nil
}

// AppendTurn re-reads the document and checks expectedCount against its
// stored counter before mutating anything. The caller (internal/httpapi's
// appendTurn) retries once on ErrConcurrentTurn per the documented policy
// before surfacing CONCURRENT_TURN.
func (s *RedisStore) AppendTurn(sessionID string, expectedCount int, turn Turn) (Session, error) {
	ctx := context.Background()
	doc, err := s.read(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if doc.ConversationCount != expectedCount {
		return Session{}, ErrConcurrentTurn
	}

	turn.TurnID = strconv.FormatInt(id.New(), 10)
	turn.Timestamp = time.Now()
	doc.History = append(doc.History, turn)
	if s.maxHistoryTurns > 0 && len(doc.History) > s.maxHistoryTurns {
		doc.History = doc.History[len(doc.History)-s.maxHistoryTurns:]
	}
	doc.ConversationCount++
	doc.Metadata.SelectedExperts = mergeExperts(doc.Metadata.SelectedExperts, turn.Experts)
	for _, d := range turn.ExpertTimings {
		doc.Metadata.AccumulatedDuration += d
	}
	doc.UpdatedAt = turn.Timestamp

	if err := s.write(ctx, doc); err != nil {
		return Session{}, err
	}
	return fromDoc(doc), nil
}

func (s *RedisStore) End(id string) error {
	ctx := context.Background()
	doc, err := s.read(ctx, id)
	if err != nil {
		return err
	}
	doc.Status = StatusEnded
	doc.UpdatedAt = time.Now()
	return s.write(ctx, doc)
}

func (s *RedisStore) Delete(id string) error {
	ctx := context.Background()
	n, err := s.client.Del(ctx, key(id)).Result()
	if err != nil {
		return fmt.Errorf("session: redis del: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SweepExpired relies on the TTL set at write time to expire documents
// server-side; this exists to satisfy the Store contract and to report a
// best-effort count by scanning keys still present past the idle timeout.
func (s *RedisStore) SweepExpired(now time.Time, idleTimeout time.Duration) (int, error) {
	ctx := context.Background()
	var swept int
	iter := s.client.Scan(ctx, 0, "session:*", 0).Iterator()
	for iter.Next(ctx) {
		raw, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return swept, fmt.Errorf("session: redis scan get: %w", err)
		}
		var doc redisDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		if doc.Status == StatusActive && now.Sub(doc.UpdatedAt) > idleTimeout {
			doc.Status = StatusEnded
			doc.UpdatedAt = now
			if err := s.write(ctx, doc); err != nil {
				return swept, err
			}
			swept++
		}
	}
	if err := iter.Err(); err != nil {
		return swept, fmt.Errorf("session: redis scan: %w", err)
	}
	return swept, nil
}

func fromDoc(doc redisDoc) Session {
	return Session{
		ID:                doc.ID,
		Owner:             doc.Owner,
		IssueCode:         doc.IssueCode,
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
		Status:            doc.Status,
		ConversationCount: doc.ConversationCount,
		History:           doc.History,
		Metadata:          doc.Metadata,
		version:           doc.Version,
	}
}
