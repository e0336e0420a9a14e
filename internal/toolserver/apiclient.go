package toolserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"adventure-server/internal/models"
)

// APIClient - HTTP клиент для REST API сервера историй
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewAPIClient создает клиент для API сервера историй
func NewAPIClient(baseURL string, timeout time.Duration, logger *zap.Logger) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("APIClient"),
	}
}

type createStoryResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type apiError struct {
	Message string `json:"message"`
}

// CreateStory отправляет тему на генерацию и возвращает ID задачи
func (c *APIClient) CreateStory(ctx context.Context, theme string) (string, error) {
	body, err := json.Marshal(map[string]string{"theme": theme})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	var resp createStoryResponse
	if err := c.doJSON(ctx, http.MethodPost, "/stories/create", bytes.NewReader(body), &resp); err != nil {
		return "", err
	}
	return resp.JobID, nil
}

// GetJob возвращает текущий статус задачи генерации
func (c *APIClient) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	var job models.Job
	if err := c.doJSON(ctx, http.MethodGet, "/jobs/"+jobID, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetCompleteStory загружает историю с полным деревом узлов
func (c *APIClient) GetCompleteStory(ctx context.Context, storyID string) (*models.CompleteStory, error) {
	var story models.CompleteStory
	if err := c.doJSON(ctx, http.MethodGet, "/stories/"+storyID+"/complete", nil, &story); err != nil {
		return nil, err
	}
	return &story, nil
}

// doJSON выполняет запрос и декодирует JSON-ответ в out
func (c *APIClient) doJSON(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("API request failed", zap.String("url", url), zap.Error(err))
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("API request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(startTime)))

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Message != "" {
			return fmt.Errorf("API returned %d: %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("API returned %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}
