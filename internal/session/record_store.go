package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/tutor-service/internal/models"
)

// Record is the durable session record written once a session is authenticated
type Record struct {
	SubjectID string          `json:"subjectId"`
	Role      models.UserRole `json:"role"`
	Timestamp time.Time       `json:"timestamp"`
}

var ErrRecordNotFound = errors.New("session record not found")

// RecordStore persists session records keyed by token. Records expire after ttl
// unless touched.
type RecordStore interface {
	Save(ctx context.Context, token string, record Record, ttl time.Duration) error
	Load(ctx context.Context, token string) (*Record, error)
	Touch(ctx context.Context, token string, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}

const recordKeyPrefix = "session:"

// RedisRecordStore keeps records under session:<token>
type RedisRecordStore struct {
	client *redis.Client
}

func NewRedisRecordStore(client *redis.Client) *RedisRecordStore {
	return &RedisRecordStore{client: client}
}

func (s *RedisRecordStore) Save(ctx context.Context, token string, record Record, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}
	if err := s.client.Set(ctx, recordKeyPrefix+token, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session record: %w", err)
	}
	return nil
}

func (s *RedisRecordStore) Load(ctx context.Context, token string) (*Record, error) {
	data, err := s.client.Get(ctx, recordKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session record: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("corrupt session record: %w", err)
	}
	return &record, nil
}

func (s *RedisRecordStore) Touch(ctx context.Context, token string, ttl time.Duration) error {
	if err := s.client.Expire(ctx, recordKeyPrefix+token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to refresh session record: %w", err)
	}
	return nil
}

func (s *RedisRecordStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, recordKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to delete session record: %w", err)
	}
	return nil
}

// MemoryRecordStore is used when Redis is not configured. Records do not survive restarts.
type MemoryRecordStore struct {
	mu      sync.Mutex
	records map[string]memoryRecord
	now     func() time.Time
}

type memoryRecord struct {
	record    Record
	expiresAt time.Time
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{
		records: make(map[string]memoryRecord),
		now:     time.Now,
	}
}

func (s *MemoryRecordStore) Save(_ context.Context, token string, record Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[token] = memoryRecord{record: record, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryRecordStore) Load(_ context.Context, token string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.records[token]
	if !ok {
		return nil, ErrRecordNotFound
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.records, token)
		return nil, ErrRecordNotFound
	}
	record := entry.record
	return &record, nil
}

func (s *MemoryRecordStore) Touch(_ context.Context, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.records[token]; ok {
		entry.expiresAt = s.now().Add(ttl)
		s.records[token] = entry
	}
	return nil
}

func (s *MemoryRecordStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, token)
	return nil
}
