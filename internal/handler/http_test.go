package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"adventure-server/internal/mocks"
	"adventure-server/internal/models"
)

func setupRouter(t *testing.T) (*gin.Engine, *mocks.MockStoryService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := mocks.NewMockStoryService(t)
	h := NewStoryHandler(svc, zap.NewNop())

	router := gin.New()
	api := router.Group("/api")
	h.RegisterRoutes(api)
	return router, svc
}

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateStory_Accepted(t *testing.T) {
	router, svc := setupRouter(t)

	job := &models.Job{ID: uuid.New(), Theme: "pirates", Status: models.JobStatusPending, CreatedAt: time.Now()}
	svc.On("CreateStoryJob", mock.Anything, "pirates").Return(job, nil).Once()

	w := performRequest(router, http.MethodPost, "/api/stories/create", gin.H{"theme": "pirates"})

	require.Equal(t, http.StatusAccepted, w.Code)
	var resp CreateStoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, job.ID.String(), resp.JobID)
	assert.Equal(t, "pending", resp.Status)
}

func TestCreateStory_MissingTheme(t *testing.T) {
	router, svc := setupRouter(t)

	w := performRequest(router, http.MethodPost, "/api/stories/create", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "CreateStoryJob", mock.Anything, mock.Anything)
}

func TestCreateStory_ThemeTooLong(t *testing.T) {
	router, svc := setupRouter(t)

	svc.On("CreateStoryJob", mock.Anything, mock.Anything).Return(nil, models.ErrThemeTooLong).Once()

	w := performRequest(router, http.MethodPost, "/api/stories/create", gin.H{"theme": "x"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetJobStatus_OK(t *testing.T) {
	router, svc := setupRouter(t)

	storyID := uuid.New()
	job := &models.Job{
		ID:      uuid.New(),
		Theme:   "jungle",
		Status:  models.JobStatusCompleted,
		StoryID: &storyID,
	}
	svc.On("GetJob", mock.Anything, job.ID).Return(job, nil).Once()

	w := performRequest(router, http.MethodGet, "/api/jobs/"+job.ID.String(), nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, job.ID.String(), resp["job_id"])
	assert.Equal(t, "completed", resp["status"])
	assert.Equal(t, storyID.String(), resp["story_id"])
	// Пустая ошибка не попадает в ответ
	_, hasError := resp["error"]
	assert.False(t, hasError)
}

func TestGetJobStatus_InvalidID(t *testing.T) {
	router, _ := setupRouter(t)

	w := performRequest(router, http.MethodGet, "/api/jobs/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetJobStatus_NotFound(t *testing.T) {
	router, svc := setupRouter(t)

	jobID := uuid.New()
	svc.On("GetJob", mock.Anything, jobID).Return(nil, models.ErrJobNotFound).Once()

	w := performRequest(router, http.MethodGet, "/api/jobs/"+jobID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetCompleteStory_OK(t *testing.T) {
	router, svc := setupRouter(t)

	rootID := uuid.New()
	endID := uuid.New()
	root := &models.StoryNode{
		ID:      rootID,
		Content: "start",
		IsRoot:  true,
		Options: []models.StoryOption{{Text: "go", NodeID: endID}},
	}
	end := &models.StoryNode{ID: endID, Content: "end", IsEnding: true, IsWinningEnding: true, Options: []models.StoryOption{}}
	story := &models.CompleteStory{
		ID:        uuid.New(),
		Title:     "T",
		Theme:     "th",
		CreatedAt: time.Now(),
		RootNode:  root,
		AllNodes: map[string]*models.StoryNode{
			rootID.String(): root,
			endID.String():  end,
		},
	}
	svc.On("GetCompleteStory", mock.Anything, story.ID).Return(story, nil).Once()

	w := performRequest(router, http.MethodGet, "/api/stories/"+story.ID.String()+"/complete", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	rootNode, ok := resp["root_node"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "start", rootNode["content"])

	allNodes, ok := resp["all_nodes"].(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, allNodes, 2)

	endNode := allNodes[endID.String()].(map[string]interface{})
	assert.Equal(t, true, endNode["is_ending"])
	assert.Equal(t, true, endNode["is_winning_ending"])
}

func TestGetCompleteStory_NotFound(t *testing.T) {
	router, svc := setupRouter(t)

	storyID := uuid.New()
	svc.On("GetCompleteStory", mock.Anything, storyID).Return(nil, models.ErrStoryNotFound).Once()

	w := performRequest(router, http.MethodGet, "/api/stories/"+storyID.String()+"/complete", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMakeChoice_OK(t *testing.T) {
	router, svc := setupRouter(t)

	storyID := uuid.New()
	nodeID := uuid.New()
	next := &models.StoryNode{ID: uuid.New(), Content: "next scene", Options: []models.StoryOption{}}
	svc.On("MakeChoice", mock.Anything, storyID, nodeID, 1).Return(next, nil).Once()

	w := performRequest(router, http.MethodPost, "/api/stories/"+storyID.String()+"/choice",
		gin.H{"node_id": nodeID.String(), "option_index": 1})

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "next scene", resp["content"])
}

func TestMakeChoice_ZeroIndexBinds(t *testing.T) {
	router, svc := setupRouter(t)

	storyID := uuid.New()
	nodeID := uuid.New()
	next := &models.StoryNode{ID: uuid.New(), Content: "first option", Options: []models.StoryOption{}}
	svc.On("MakeChoice", mock.Anything, storyID, nodeID, 0).Return(next, nil).Once()

	// Индекс 0 валиден и не должен отбрасываться binding'ом
	w := performRequest(router, http.MethodPost, "/api/stories/"+storyID.String()+"/choice",
		gin.H{"node_id": nodeID.String(), "option_index": 0})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMakeChoice_MissingFields(t *testing.T) {
	router, svc := setupRouter(t)

	storyID := uuid.New()
	w := performRequest(router, http.MethodPost, "/api/stories/"+storyID.String()+"/choice",
		gin.H{"node_id": uuid.New().String()})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "MakeChoice", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMakeChoice_EndingNode(t *testing.T) {
	router, svc := setupRouter(t)

	storyID := uuid.New()
	nodeID := uuid.New()
	svc.On("MakeChoice", mock.Anything, storyID, nodeID, 0).Return(nil, models.ErrNodeIsEnding).Once()

	w := performRequest(router, http.MethodPost, "/api/stories/"+storyID.String()+"/choice",
		gin.H{"node_id": nodeID.String(), "option_index": 0})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMakeChoice_OptionOutOfRange(t *testing.T) {
	router, svc := setupRouter(t)

	storyID := uuid.New()
	nodeID := uuid.New()
	svc.On("MakeChoice", mock.Anything, storyID, nodeID, 5).Return(nil, models.ErrOptionInvalid).Once()

	w := performRequest(router, http.MethodPost, "/api/stories/"+storyID.String()+"/choice",
		gin.H{"node_id": nodeID.String(), "option_index": 5})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
