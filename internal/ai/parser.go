package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"adventure-server/internal/models"
)

// TreeBounds задает структурные ограничения на сгенерированное дерево
type TreeBounds struct {
	MaxDepth   int
	MaxOptions int
}

// generatedNode - узел дерева в том виде, в котором его возвращает модель
type generatedNode struct {
	Content         string            `json:"content"`
	IsEnding        bool              `json:"is_ending"`
	IsWinningEnding bool              `json:"is_winning_ending"`
	Options         []generatedOption `json:"options"`
}

type generatedOption struct {
	Text string         `json:"text"`
	Node *generatedNode `json:"node"`
}

// generatedStory - весь ответ модели
type generatedStory struct {
	Title string         `json:"title"`
	Root  *generatedNode `json:"root"`
}

// ParseStoryTree разбирает сырой ответ модели в плоский список узлов с
// присвоенными UUID. Любое нарушение формата или структурных ограничений
// возвращает ошибку, оборачивающую models.ErrMalformedOutput, - частично
// разобранные деревья не возвращаются.
func ParseStoryTree(raw string, bounds TreeBounds) (string, []*models.StoryNode, error) {
	jsonPayload, err := extractJSON(raw)
	if err != nil {
		return "", nil, err
	}

	var story generatedStory
	if err := json.Unmarshal([]byte(jsonPayload), &story); err != nil {
		return "", nil, fmt.Errorf("%w: невалидный JSON: %v", models.ErrMalformedOutput, err)
	}

	if strings.TrimSpace(story.Title) == "" {
		return "", nil, fmt.Errorf("%w: отсутствует заголовок истории", models.ErrMalformedOutput)
	}
	if story.Root == nil {
		return "", nil, fmt.Errorf("%w: отсутствует корневой узел", models.ErrMalformedOutput)
	}

	var nodes []*models.StoryNode
	if err := flattenNode(story.Root, true, 1, bounds, &nodes); err != nil {
		return "", nil, err
	}

	if !hasWinningEnding(nodes) {
		return "", nil, fmt.Errorf("%w: в дереве нет победной концовки", models.ErrMalformedOutput)
	}

	return strings.TrimSpace(story.Title), nodes, nil
}

// flattenNode рекурсивно проверяет узел и его потомков, присваивает им UUID
// и добавляет их в nodes. ID узла-потомка записывается в option родителя.
func flattenNode(gn *generatedNode, isRoot bool, depth int, bounds TreeBounds, nodes *[]*models.StoryNode) error {
	if strings.TrimSpace(gn.Content) == "" {
		return fmt.Errorf("%w: узел на глубине %d без текста", models.ErrMalformedOutput, depth)
	}
	if depth > bounds.MaxDepth {
		return fmt.Errorf("%w: дерево глубже %d уровней", models.ErrMalformedOutput, bounds.MaxDepth)
	}

	node := &models.StoryNode{
		ID:              uuid.New(),
		Content:         strings.TrimSpace(gn.Content),
		IsRoot:          isRoot,
		IsEnding:        gn.IsEnding,
		IsWinningEnding: gn.IsWinningEnding,
		Options:         []models.StoryOption{},
	}

	switch {
	case gn.IsEnding:
		if len(gn.Options) > 0 {
			return fmt.Errorf("%w: концовка на глубине %d содержит варианты выбора", models.ErrMalformedOutput, depth)
		}
	case gn.IsWinningEnding:
		return fmt.Errorf("%w: узел на глубине %d помечен победным, но не является концовкой", models.ErrMalformedOutput, depth)
	default:
		if len(gn.Options) == 0 {
			return fmt.Errorf("%w: узел на глубине %d без вариантов выбора и без признака концовки", models.ErrMalformedOutput, depth)
		}
		if len(gn.Options) > bounds.MaxOptions {
			return fmt.Errorf("%w: узел на глубине %d содержит %d вариантов (максимум %d)",
				models.ErrMalformedOutput, depth, len(gn.Options), bounds.MaxOptions)
		}
	}

	// Узел добавляется до обхода потомков, чтобы корень оказался первым
	*nodes = append(*nodes, node)

	for i, opt := range gn.Options {
		if strings.TrimSpace(opt.Text) == "" {
			return fmt.Errorf("%w: вариант %d узла на глубине %d без текста", models.ErrMalformedOutput, i, depth)
		}
		if opt.Node == nil {
			return fmt.Errorf("%w: вариант %d узла на глубине %d без узла-потомка", models.ErrMalformedOutput, i, depth)
		}

		childIndex := len(*nodes)
		if err := flattenNode(opt.Node, false, depth+1, bounds, nodes); err != nil {
			return err
		}
		node.Options = append(node.Options, models.StoryOption{
			Text:   strings.TrimSpace(opt.Text),
			NodeID: (*nodes)[childIndex].ID,
		})
	}

	return nil
}

func hasWinningEnding(nodes []*models.StoryNode) bool {
	for _, n := range nodes {
		if n.IsEnding && n.IsWinningEnding {
			return true
		}
	}
	return false
}

// extractJSON вырезает JSON-объект из сырого ответа модели: снимает
// markdown-обертку и отбрасывает текст до первой и после последней
// сбалансированной фигурной скобки.
func extractJSON(raw string) (string, error) {
	text := strings.TrimSpace(raw)

	// Модели нередко заворачивают ответ в ```json ... ``` вопреки промту
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.Index(text, "{")
	if start < 0 {
		return "", fmt.Errorf("%w: в ответе нет JSON-объекта", models.ErrMalformedOutput)
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("%w: JSON-объект в ответе не закрыт", models.ErrMalformedOutput)
}
