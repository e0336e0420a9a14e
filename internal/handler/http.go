package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"adventure-server/internal/models"
	"adventure-server/internal/service"
)

// StoryHandler обрабатывает HTTP запросы сервиса историй
type StoryHandler struct {
	service service.StoryService
	logger  *zap.Logger
}

// NewStoryHandler создает новый StoryHandler
func NewStoryHandler(s service.StoryService, logger *zap.Logger) *StoryHandler {
	return &StoryHandler{
		service: s,
		logger:  logger.Named("StoryHandler"),
	}
}

// RegisterRoutes регистрирует маршруты сервиса историй
func (h *StoryHandler) RegisterRoutes(router gin.IRouter) {
	stories := router.Group("/stories")
	{
		stories.POST("/create", h.createStory)
		stories.GET("/:story_id/complete", h.getCompleteStory)
		stories.POST("/:story_id/choice", h.makeChoice)
	}
	router.GET("/jobs/:job_id", h.getJobStatus)
}

// handleServiceError преобразует ошибки сервисного слоя в HTTP ответы
func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var apiErr APIError

	switch {
	case errors.Is(err, models.ErrThemeEmpty),
		errors.Is(err, models.ErrThemeTooLong),
		errors.Is(err, models.ErrOptionInvalid),
		errors.Is(err, models.ErrNodeIsEnding),
		errors.Is(err, models.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrJobNotFound),
		errors.Is(err, models.ErrStoryNotFound),
		errors.Is(err, models.ErrNodeNotFound),
		errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		apiErr = APIError{Message: err.Error()}
	default:
		statusCode = http.StatusInternalServerError
		apiErr = APIError{Message: "Internal server error"}
	}

	c.AbortWithStatusJSON(statusCode, apiErr)
}

// isExpectedError сообщает, относится ли ошибка к ожидаемым ответам клиенту.
// Такие ошибки не логируются на уровне Error.
func isExpectedError(err error) bool {
	return errors.Is(err, models.ErrThemeEmpty) ||
		errors.Is(err, models.ErrThemeTooLong) ||
		errors.Is(err, models.ErrOptionInvalid) ||
		errors.Is(err, models.ErrNodeIsEnding) ||
		errors.Is(err, models.ErrInvalidInput) ||
		errors.Is(err, models.ErrNotFound)
}

// createStory обрабатывает запрос на генерацию новой истории
// @Summary Создать историю
// @Description Принимает тему и запускает асинхронную генерацию истории. Возвращает ID задачи для опроса статуса.
// @Tags stories
// @Accept json
// @Produce json
// @Param request body CreateStoryRequest true "Тема истории"
// @Success 202 {object} CreateStoryResponse
// @Failure 400 {object} APIError
// @Failure 500 {object} APIError
// @Router /stories/create [post]
func (h *StoryHandler) createStory(c *gin.Context) {
	var req CreateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body for createStory", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	job, err := h.service.CreateStoryJob(c.Request.Context(), req.Theme)
	if err != nil {
		if !isExpectedError(err) {
			h.logger.Error("Error creating story job", zap.Error(err))
		}
		handleServiceError(c, err)
		return
	}

	storyJobsAccepted.Inc()
	c.JSON(http.StatusAccepted, CreateStoryResponse{
		JobID:  job.ID.String(),
		Status: string(job.Status),
	})
}

// getJobStatus возвращает статус задачи генерации
// @Summary Статус задачи генерации
// @Description Возвращает текущий статус задачи. После завершения содержит story_id либо текст ошибки.
// @Tags jobs
// @Produce json
// @Param job_id path string true "ID задачи"
// @Success 200 {object} models.Job
// @Failure 400 {object} APIError
// @Failure 404 {object} APIError
// @Router /jobs/{job_id} [get]
func (h *StoryHandler) getJobStatus(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, APIError{Message: "Invalid job ID format"})
		return
	}

	job, err := h.service.GetJob(c.Request.Context(), jobID)
	if err != nil {
		if !isExpectedError(err) {
			h.logger.Error("Error getting job", zap.String("job_id", jobID.String()), zap.Error(err))
		}
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// getCompleteStory возвращает историю с полным деревом узлов
// @Summary Полная история
// @Description Возвращает историю целиком: корневой узел и все узлы дерева.
// @Tags stories
// @Produce json
// @Param story_id path string true "ID истории"
// @Success 200 {object} models.CompleteStory
// @Failure 400 {object} APIError
// @Failure 404 {object} APIError
// @Router /stories/{story_id}/complete [get]
func (h *StoryHandler) getCompleteStory(c *gin.Context) {
	storyID, err := uuid.Parse(c.Param("story_id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, APIError{Message: "Invalid story ID format"})
		return
	}

	story, err := h.service.GetCompleteStory(c.Request.Context(), storyID)
	if err != nil {
		if !isExpectedError(err) {
			h.logger.Error("Error getting complete story", zap.String("story_id", storyID.String()), zap.Error(err))
		}
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, story)
}

// makeChoice разрешает выбор варианта и возвращает следующий узел
// @Summary Сделать выбор
// @Description Принимает ID узла и индекс варианта, возвращает следующий узел истории. Состояние на сервере не меняется.
// @Tags stories
// @Accept json
// @Produce json
// @Param story_id path string true "ID истории"
// @Param request body MakeChoiceRequest true "Выбор игрока"
// @Success 200 {object} models.StoryNode
// @Failure 400 {object} APIError
// @Failure 404 {object} APIError
// @Router /stories/{story_id}/choice [post]
func (h *StoryHandler) makeChoice(c *gin.Context) {
	storyID, err := uuid.Parse(c.Param("story_id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, APIError{Message: "Invalid story ID format"})
		return
	}

	var req MakeChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	nodeID, err := uuid.Parse(req.NodeID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, APIError{Message: "Invalid node ID format"})
		return
	}

	nextNode, err := h.service.MakeChoice(c.Request.Context(), storyID, nodeID, *req.OptionIndex)
	if err != nil {
		if !isExpectedError(err) {
			h.logger.Error("Error making choice",
				zap.String("story_id", storyID.String()),
				zap.String("node_id", nodeID.String()),
				zap.Error(err))
		}
		choicesResolved.WithLabelValues("error").Inc()
		handleServiceError(c, err)
		return
	}

	choicesResolved.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, nextNode)
}
