// Package session は1冊分の絵本制作の進行状態を保持します。
//
// 台本・アバター・スロットごとの生成済みアセットを1つのセッションに
// まとめ、並行アクセスから保護します。セッションはTTL付きのストアで
// 管理され、期限切れで自動的に破棄されます。
package session

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/generator"
)

// AvatarInput はアバター導出に使った元入力です。
// 再生成のために保持されます。写真と説明は排他です。
type AvatarInput struct {
	Photo       []byte
	Description string
}

// Session は1冊分の制作状態です。全フィールドはミューテックスで保護されます。
type Session struct {
	ID        string
	CreatedAt time.Time

	mu          sync.Mutex
	child       domain.ChildProfile
	goal        domain.StoryGoal
	style       domain.StyleSpec
	strategy    generator.Strategy
	story       *domain.Story
	avatar      *domain.Avatar
	avatarInput *AvatarInput
	assets      map[domain.Slot]domain.GeneratedAsset
	statuses    map[domain.Slot]domain.SlotStatus

	// slotGroup は同一スロットへの再生成要求を直列化します。
	slotGroup singleflight.Group
}

func newSession(id string, child domain.ChildProfile, goal domain.StoryGoal, style domain.StyleSpec, strategy generator.Strategy) *Session {
	if strategy == "" {
		strategy = generator.StrategyAlwaysAvatar
	}
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		child:     child,
		goal:      goal,
		style:     style,
		strategy:  strategy,
		assets:    make(map[domain.Slot]domain.GeneratedAsset),
		statuses:  make(map[domain.Slot]domain.SlotStatus),
	}
}

// Inputs はセッション作成時の入力一式を返します。
func (s *Session) Inputs() (domain.ChildProfile, domain.StoryGoal, domain.StyleSpec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.child, s.goal, s.style
}

// Strategy はページ挿絵のソース選択戦略を返します。
func (s *Session) Strategy() generator.Strategy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategy
}

// SetStory は台本を確定します。既存のアセットは台本の差し替えで無効になるため
// すべて破棄されます。
func (s *Session) SetStory(story domain.Story) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := story
	copied.Pages = append(domain.Pages(nil), story.Pages...)
	s.story = &copied
	s.assets = make(map[domain.Slot]domain.GeneratedAsset)
	s.statuses = make(map[domain.Slot]domain.SlotStatus)
}

// Story は確定済みの台本を返します。
func (s *Session) Story() (domain.Story, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.story == nil {
		return domain.Story{}, false
	}
	return *s.story, true
}

// SetAvatar はアバターを置き換えます。導出の成功が確定してから呼ぶこと。
// 失敗時にこのメソッドを呼ばない限り、既存のアバターは温存されます。
func (s *Session) SetAvatar(avatar domain.Avatar, input AvatarInput) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.avatar = &avatar
	s.avatarInput = &input
}

// Avatar は現在のアバターを返します。
func (s *Session) Avatar() (domain.Avatar, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.avatar == nil {
		return domain.Avatar{}, false
	}
	return *s.avatar, true
}

// AvatarInput は前回のアバター導出に使った入力を返します。再生成用です。
func (s *Session) AvatarInput() (AvatarInput, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.avatarInput == nil {
		return AvatarInput{}, false
	}
	return *s.avatarInput, true
}

// Asset はスロットの生成済みアセットを返します。
func (s *Session) Asset(slot domain.Slot) (domain.GeneratedAsset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[slot]
	return a, ok
}

// PutAsset はアセットを格納し、スロットを完了状態にします。
func (s *Session) PutAsset(asset domain.GeneratedAsset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[asset.Slot] = asset
	s.statuses[asset.Slot] = domain.SlotDone
}

// MarkStatus はスロットの進行状態を更新します。アセット自体は変更しません。
func (s *Session) MarkStatus(slot domain.Slot, status domain.SlotStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[slot] = status
}

// Statuses は全スロットの進行状態のコピーを返します。
func (s *Session) Statuses() map[domain.Slot]domain.SlotStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Slot]domain.SlotStatus, len(s.statuses))
	for k, v := range s.statuses {
		out[k] = v
	}
	return out
}

// Assets は全スロットのアセットのコピーを返します。
func (s *Session) Assets() map[domain.Slot]domain.GeneratedAsset {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Slot]domain.GeneratedAsset, len(s.assets))
	for k, v := range s.assets {
		out[k] = v
	}
	return out
}

// DoSlot は同一スロットに対する処理を直列化して実行します。
// 同じスロットへの同時要求は最初の1件の結果を共有します。
func (s *Session) DoSlot(slot domain.Slot, fn func() (any, error)) (any, error) {
	v, err, _ := s.slotGroup.Do(string(slot), fn)
	return v, err
}

// RequireStoryAndAvatar は伝搬開始の前提を確認します。
func (s *Session) RequireStoryAndAvatar() (domain.Story, domain.Avatar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var missing []string
	if s.story == nil {
		missing = append(missing, "story")
	}
	if s.avatar == nil {
		missing = append(missing, "avatar")
	}
	if len(missing) > 0 {
		return domain.Story{}, domain.Avatar{}, &generator.PreconditionError{Missing: missing}
	}
	return *s.story, *s.avatar, nil
}

// String はログ出力用の短い表現を返します。画像データは含めません。
func (s *Session) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("session %s (assets=%d)", s.ID, len(s.assets))
}
