package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	pgxV5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"adventure-server/internal/database"
	"adventure-server/internal/models"
)

const (
	insertStoryQuery = `
        INSERT INTO stories (id, title, theme, created_at)
        VALUES ($1, $2, $3, $4)
    `
	insertStoryNodeQuery = `
        INSERT INTO story_nodes (id, story_id, content, is_root, is_ending, is_winning_ending, options)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	getStoryQuery = `
        SELECT id, title, theme, created_at FROM stories WHERE id = $1
    `
	getStoryNodesQuery = `
        SELECT id, story_id, content, is_root, is_ending, is_winning_ending, options
        FROM story_nodes WHERE story_id = $1
    `
	getStoryNodeQuery = `
        SELECT id, story_id, content, is_root, is_ending, is_winning_ending, options
        FROM story_nodes WHERE story_id = $1 AND id = $2
    `
)

// storyNodeRow - строка story_nodes как она лежит в базе (options как jsonb).
type storyNodeRow struct {
	ID              uuid.UUID `db:"id"`
	StoryID         uuid.UUID `db:"story_id"`
	Content         string    `db:"content"`
	IsRoot          bool      `db:"is_root"`
	IsEnding        bool      `db:"is_ending"`
	IsWinningEnding bool      `db:"is_winning_ending"`
	Options         []byte    `db:"options"`
}

func (r *storyNodeRow) toModel() (*models.StoryNode, error) {
	node := &models.StoryNode{
		ID:              r.ID,
		StoryID:         r.StoryID,
		Content:         r.Content,
		IsRoot:          r.IsRoot,
		IsEnding:        r.IsEnding,
		IsWinningEnding: r.IsWinningEnding,
		Options:         []models.StoryOption{},
	}
	if len(r.Options) > 0 {
		if err := json.Unmarshal(r.Options, &node.Options); err != nil {
			return nil, fmt.Errorf("failed to decode options for node %s: %w", r.ID, err)
		}
	}
	return node, nil
}

type pgStoryRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgStoryRepository создает репозиторий историй поверх PostgreSQL.
func NewPgStoryRepository(pool *pgxpool.Pool, logger *zap.Logger) StoryRepository {
	return &pgStoryRepository{
		pool:   pool,
		logger: logger.Named("PgStoryRepo"),
	}
}

// CreateStoryTree сохраняет историю и все узлы ее дерева одной транзакцией.
func (r *pgStoryRepository) CreateStoryTree(ctx context.Context, story *models.Story, nodes []*models.StoryNode) error {
	log := r.logger.With(zap.String("story_id", story.ID.String()))

	err := database.ExecuteInTransaction(ctx, r.pool, func(tx pgxV5.Tx) error {
		// created_at берется из модели, а не now(): клиент, создавший историю,
		// должен видеть тот же timestamp при повторном чтении
		if _, err := tx.Exec(ctx, insertStoryQuery, story.ID, story.Title, story.Theme, story.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert story: %w", err)
		}
		for _, node := range nodes {
			optionsJSON, err := json.Marshal(node.Options)
			if err != nil {
				return fmt.Errorf("failed to encode options for node %s: %w", node.ID, err)
			}
			_, err = tx.Exec(ctx, insertStoryNodeQuery,
				node.ID, story.ID, node.Content, node.IsRoot, node.IsEnding, node.IsWinningEnding, optionsJSON)
			if err != nil {
				return fmt.Errorf("failed to insert story node %s: %w", node.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Error creating story tree", zap.Error(err))
		return err
	}

	log.Info("Story tree created", zap.Int("nodes", len(nodes)))
	return nil
}

// GetCompleteStory возвращает историю вместе с полным деревом узлов.
func (r *pgStoryRepository) GetCompleteStory(ctx context.Context, storyID uuid.UUID) (*models.CompleteStory, error) {
	log := r.logger.With(zap.String("story_id", storyID.String()))

	var story models.Story
	err := pgxscan.Get(ctx, r.pool, &story, getStoryQuery, storyID)
	if err != nil {
		if errors.Is(err, pgxV5.ErrNoRows) {
			log.Warn("Story not found")
			return nil, models.ErrStoryNotFound
		}
		log.Error("Error getting story", zap.Error(err))
		return nil, fmt.Errorf("failed to get story %s: %w", storyID, err)
	}

	var rows []*storyNodeRow
	if err := pgxscan.Select(ctx, r.pool, &rows, getStoryNodesQuery, storyID); err != nil {
		log.Error("Error getting story nodes", zap.Error(err))
		return nil, fmt.Errorf("failed to get nodes of story %s: %w", storyID, err)
	}

	complete := &models.CompleteStory{
		ID:        story.ID,
		Title:     story.Title,
		Theme:     story.Theme,
		CreatedAt: story.CreatedAt,
		AllNodes:  make(map[string]*models.StoryNode, len(rows)),
	}
	for _, row := range rows {
		node, err := row.toModel()
		if err != nil {
			return nil, err
		}
		complete.AllNodes[node.ID.String()] = node
		if node.IsRoot {
			complete.RootNode = node
		}
	}

	if complete.RootNode == nil {
		// Истории без корня в базе быть не должно (уникальный частичный индекс)
		log.Error("Story has no root node")
		return nil, models.ErrStoryTreeInvalid
	}

	return complete, nil
}

// GetNode возвращает один узел истории.
func (r *pgStoryRepository) GetNode(ctx context.Context, storyID, nodeID uuid.UUID) (*models.StoryNode, error) {
	var row storyNodeRow
	err := pgxscan.Get(ctx, r.pool, &row, getStoryNodeQuery, storyID, nodeID)
	if err != nil {
		if errors.Is(err, pgxV5.ErrNoRows) {
			return nil, models.ErrNodeNotFound
		}
		r.logger.Error("Error getting story node",
			zap.String("story_id", storyID.String()),
			zap.String("node_id", nodeID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get node %s of story %s: %w", nodeID, storyID, err)
	}
	return row.toModel()
}
