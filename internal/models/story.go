package models

import (
	"time"

	"github.com/google/uuid"
)

// Story представляет сгенерированную ветвящуюся историю.
// История неизменяема после создания: дерево узлов генерируется
// целиком за один проход и сохраняется одной транзакцией.
type Story struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Theme     string    `json:"theme" db:"theme"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// StoryNode представляет один узел повествования внутри истории.
// Узел не существует отдельно от своей истории.
type StoryNode struct {
	ID              uuid.UUID     `json:"id" db:"id"`
	StoryID         uuid.UUID     `json:"-" db:"story_id"`
	Content         string        `json:"content" db:"content"`
	IsRoot          bool          `json:"-" db:"is_root"`
	IsEnding        bool          `json:"is_ending" db:"is_ending"`
	IsWinningEnding bool          `json:"is_winning_ending" db:"is_winning_ending"`
	Options         []StoryOption `json:"options" db:"-"`
}

// StoryOption представляет вариант выбора, ведущий к следующему узлу.
// NodeID всегда указывает на узел той же истории (направленное дерево без циклов).
type StoryOption struct {
	Text   string    `json:"text"`
	NodeID uuid.UUID `json:"node_id"`
}

// CompleteStory - полное дерево истории в том виде, в котором его
// отдает API: корневой узел плюс карта всех узлов по их ID.
type CompleteStory struct {
	ID        uuid.UUID             `json:"id"`
	Title     string                `json:"title"`
	Theme     string                `json:"theme"`
	CreatedAt time.Time             `json:"created_at"`
	RootNode  *StoryNode            `json:"root_node"`
	AllNodes  map[string]*StoryNode `json:"all_nodes"`
}

// Node возвращает узел истории по его ID или nil, если такого узла нет.
func (s *CompleteStory) Node(id uuid.UUID) *StoryNode {
	if s.AllNodes == nil {
		return nil
	}
	return s.AllNodes[id.String()]
}

// Validate проверяет инварианты дерева: ровно один корень и отсутствие
// висячих ссылок в вариантах выбора.
func (s *CompleteStory) Validate() error {
	if s.RootNode == nil {
		return ErrStoryTreeInvalid
	}
	roots := 0
	for _, node := range s.AllNodes {
		if node.IsRoot {
			roots++
		}
		if node.IsEnding && len(node.Options) > 0 {
			return ErrStoryTreeInvalid
		}
		for _, opt := range node.Options {
			if _, ok := s.AllNodes[opt.NodeID.String()]; !ok {
				return ErrStoryTreeInvalid
			}
		}
	}
	if roots != 1 {
		return ErrStoryTreeInvalid
	}
	return nil
}
