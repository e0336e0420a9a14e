package toolserver

import (
	"strings"
	"sync"

	"adventure-server/internal/models"
)

// GameState хранит положение игрока в текущей истории.
// Состояние живет только в памяти процесса адаптера, сервер историй
// о нем ничего не знает.
type GameState struct {
	mu            sync.Mutex
	lastJobID     string
	currentStory  *models.CompleteStory
	currentNodeID string
}

// NewGameState создает пустое игровое состояние
func NewGameState() *GameState {
	return &GameState{}
}

// SetLastJob запоминает ID последней созданной задачи генерации
func (g *GameState) SetLastJob(jobID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastJobID = jobID
}

// LastJobID возвращает ID последней задачи генерации
func (g *GameState) LastJobID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastJobID
}

// SetStory загружает историю и ставит игрока на корневой узел.
// История без корневого узла сбрасывает состояние.
func (g *GameState) SetStory(story *models.CompleteStory) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if story == nil || story.RootNode == nil {
		g.currentStory = nil
		g.currentNodeID = ""
		return
	}
	g.currentStory = story
	g.currentNodeID = story.RootNode.ID.String()
}

// CurrentNode возвращает историю и узел, на котором стоит игрок.
// Второе значение false, если активной истории нет.
func (g *GameState) CurrentNode() (*models.CompleteStory, *models.StoryNode, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.currentStory == nil || g.currentNodeID == "" {
		return nil, nil, false
	}
	node, ok := g.currentStory.AllNodes[g.currentNodeID]
	if !ok {
		return nil, nil, false
	}
	return g.currentStory, node, true
}

// Advance переводит игрока на указанный узел текущей истории
func (g *GameState) Advance(nodeID string) (*models.StoryNode, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.currentStory == nil {
		return nil, false
	}
	node, ok := g.currentStory.AllNodes[nodeID]
	if !ok {
		return nil, false
	}
	g.currentNodeID = nodeID
	return node, true
}

// MatchOption ищет вариант по тексту: сначала точное совпадение без учета
// регистра, затем вхождение подстроки в обе стороны.
func MatchOption(options []models.StoryOption, choiceText string) (*models.StoryOption, bool) {
	choice := strings.ToLower(strings.TrimSpace(choiceText))
	if choice == "" {
		return nil, false
	}

	for i := range options {
		if strings.ToLower(options[i].Text) == choice {
			return &options[i], true
		}
	}
	for i := range options {
		optText := strings.ToLower(options[i].Text)
		if strings.Contains(optText, choice) || strings.Contains(choice, optText) {
			return &options[i], true
		}
	}
	return nil, false
}
