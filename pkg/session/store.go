package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/generator"
)

// セッションの既定の生存期間と掃除間隔
const (
	DefaultTTL             = 30 * time.Minute
	DefaultCleanupInterval = 1 * time.Hour
)

// NotFoundError はセッションIDが存在しない（または期限切れ）ことを表します。
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session %s not found", e.ID)
}

// Store はTTL付きのインメモリセッションストアです。
type Store struct {
	c *cache.Cache
}

// NewStore はストアを初期化します。ttl が 0 の場合は既定値を使います。
func NewStore(ttl, cleanupInterval time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	return &Store{c: cache.New(ttl, cleanupInterval)}
}

// Create は入力を検証せずに新しいセッションを発行します。
// 入力の検証は台本生成時に行われます。
func (s *Store) Create(child domain.ChildProfile, goal domain.StoryGoal, style domain.StyleSpec, strategy generator.Strategy) *Session {
	sess := newSession(uuid.NewString(), child, goal, style, strategy)
	s.c.Set(sess.ID, sess, cache.DefaultExpiration)
	return sess
}

// Get はIDからセッションを引きます。アクセスのたびに生存期間を延長します。
func (s *Store) Get(id string) (*Session, error) {
	v, ok := s.c.Get(id)
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	sess := v.(*Session)
	s.c.Set(id, sess, cache.DefaultExpiration)
	return sess, nil
}

// Delete はセッションを即時に破棄します。
func (s *Store) Delete(id string) {
	s.c.Delete(id)
}
