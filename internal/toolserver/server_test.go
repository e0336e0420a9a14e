package toolserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"adventure-server/internal/models"
)

func newTestToolServer(t *testing.T, apiHandler http.HandlerFunc) *Server {
	t.Helper()
	backend := httptest.NewServer(apiHandler)
	t.Cleanup(backend.Close)
	return New(NewAPIClient(backend.URL, 5*time.Second, zap.NewNop()), zap.NewNop())
}

func toolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func TestHandleGetCompleteStory_LoadsStoryAtRoot(t *testing.T) {
	story := buildTestStory()
	s := newTestToolServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stories/"+story.ID.String()+"/complete", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(story))
	})

	result, err := s.handleGetCompleteStory(context.Background(),
		toolRequest("get_complete_story", map[string]interface{}{"story_id": story.ID.String()}))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	gotStory, node, ok := s.state.CurrentNode()
	require.True(t, ok)
	assert.Equal(t, story.ID, gotStory.ID)
	assert.Equal(t, story.RootNode.ID, node.ID)
}

func TestHandleGetCompleteStory_StoryWithoutRootNode(t *testing.T) {
	storyID := uuid.New()
	s := newTestToolServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
			"id":        storyID.String(),
			"title":     "Broken",
			"all_nodes": map[string]*models.StoryNode{},
		}))
	})

	result, err := s.handleGetCompleteStory(context.Background(),
		toolRequest("get_complete_story", map[string]interface{}{"story_id": storyID.String()}))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)

	// Битая история не становится активной
	_, _, ok := s.state.CurrentNode()
	assert.False(t, ok)
}
