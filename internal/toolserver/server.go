package toolserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Server - MCP адаптер, позволяющий LLM-агенту играть в истории через
// инструменты поверх REST API сервера.
type Server struct {
	mcpServer *server.MCPServer
	apiClient *APIClient
	state     *GameState
	logger    *zap.Logger
}

// New создает MCP сервер с зарегистрированными игровыми инструментами
func New(apiClient *APIClient, logger *zap.Logger) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Choose Your Own Adventure Game",
			"1.0.0",
			server.WithToolCapabilities(false),
		),
		apiClient: apiClient,
		state:     NewGameState(),
		logger:    logger.Named("ToolServer"),
	}
	s.registerTools()
	return s
}

// ServeStdio запускает сервер поверх stdin/stdout
func (s *Server) ServeStdio() error {
	s.logger.Info("Starting MCP server on stdio")
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("create_story",
		mcp.WithDescription("Create a new Choose Your Own Adventure story with the given theme."),
		mcp.WithString("theme",
			mcp.Required(),
			mcp.Description("The theme for the story (e.g., \"space adventure\", \"medieval fantasy\")"),
		),
	), s.handleCreateStory)

	s.mcpServer.AddTool(mcp.NewTool("get_job_status",
		mcp.WithDescription("Check the status of a story generation job."),
		mcp.WithString("job_id",
			mcp.Description("The job ID to check. If not provided, uses the last job from this session."),
		),
	), s.handleGetJobStatus)

	s.mcpServer.AddTool(mcp.NewTool("get_complete_story",
		mcp.WithDescription("Retrieve a complete story and prepare it for interactive gameplay."),
		mcp.WithString("story_id",
			mcp.Required(),
			mcp.Description("The story ID to retrieve."),
		),
	), s.handleGetCompleteStory)

	s.mcpServer.AddTool(mcp.NewTool("make_story_choice",
		mcp.WithDescription("Make a choice in the current story by selecting an option."),
		mcp.WithString("choice_text",
			mcp.Required(),
			mcp.Description("The text of the choice/option to select."),
		),
	), s.handleMakeStoryChoice)

	s.mcpServer.AddTool(mcp.NewTool("get_current_status",
		mcp.WithDescription("Get the current game status and position."),
	), s.handleGetCurrentStatus)

	s.mcpServer.AddTool(mcp.NewTool("list_available_options",
		mcp.WithDescription("List all available choices at the current story position."),
	), s.handleListAvailableOptions)
}

// jsonResult сериализует произвольный ответ инструмента в текстовый результат
func jsonResult(payload interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return mcp.NewToolResultError("failed to encode result: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func stringArg(request mcp.CallToolRequest, name string) string {
	value, _ := request.Params.Arguments[name].(string)
	return value
}

func (s *Server) handleCreateStory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	theme := stringArg(request, "theme")
	if theme == "" {
		return mcp.NewToolResultError("theme is required"), nil
	}

	jobID, err := s.apiClient.CreateStory(ctx, theme)
	if err != nil {
		s.logger.Warn("create_story failed", zap.Error(err))
		return mcp.NewToolResultError("Error creating story: " + err.Error()), nil
	}
	s.state.SetLastJob(jobID)

	return jsonResult(map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Story creation started with theme: '%s'", theme),
		"job_id":  jobID,
		"status":  "pending",
	})
}

func (s *Server) handleGetJobStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := stringArg(request, "job_id")
	if jobID == "" {
		jobID = s.state.LastJobID()
	}
	if jobID == "" {
		return mcp.NewToolResultError("No job ID provided and no active job found"), nil
	}

	job, err := s.apiClient.GetJob(ctx, jobID)
	if err != nil {
		s.logger.Warn("get_job_status failed", zap.String("job_id", jobID), zap.Error(err))
		return mcp.NewToolResultError("Error checking job status: " + err.Error()), nil
	}

	result := map[string]interface{}{
		"success":    true,
		"job_id":     job.ID.String(),
		"status":     string(job.Status),
		"theme":      job.Theme,
		"created_at": job.CreatedAt,
	}
	if job.StoryID != nil {
		result["story_id"] = job.StoryID.String()
	}
	if job.CompletedAt != nil {
		result["completed_at"] = job.CompletedAt
	}
	if job.Error != "" {
		result["error"] = job.Error
	}
	return jsonResult(result)
}

func (s *Server) handleGetCompleteStory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	storyID := stringArg(request, "story_id")
	if storyID == "" {
		return mcp.NewToolResultError("story_id is required"), nil
	}

	story, err := s.apiClient.GetCompleteStory(ctx, storyID)
	if err != nil {
		s.logger.Warn("get_complete_story failed", zap.String("story_id", storyID), zap.Error(err))
		return mcp.NewToolResultError("Error getting story: " + err.Error()), nil
	}
	if story.RootNode == nil {
		// Сервер обязан отдавать root_node, но падать из-за чужого ответа нельзя
		s.logger.Warn("API returned story without root node", zap.String("story_id", storyID))
		return mcp.NewToolResultError("Story has no root node"), nil
	}
	s.state.SetStory(story)

	return jsonResult(map[string]interface{}{
		"success":         true,
		"story_id":        story.ID.String(),
		"title":           story.Title,
		"created_at":      story.CreatedAt,
		"current_content": story.RootNode.Content,
		"is_ending":       story.RootNode.IsEnding,
		"options":         story.RootNode.Options,
		"message":         "Story loaded successfully. You can now make choices to progress.",
	})
}

func (s *Server) handleMakeStoryChoice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	choiceText := stringArg(request, "choice_text")
	if choiceText == "" {
		return mcp.NewToolResultError("choice_text is required"), nil
	}

	_, currentNode, ok := s.state.CurrentNode()
	if !ok {
		return mcp.NewToolResultError("No active story found. Please load a story first using get_complete_story."), nil
	}
	if currentNode.IsEnding {
		return mcp.NewToolResultError("Story has ended. Start a new story to continue playing."), nil
	}
	if len(currentNode.Options) == 0 {
		return mcp.NewToolResultError("No options available at current story position"), nil
	}

	selected, ok := MatchOption(currentNode.Options, choiceText)
	if !ok {
		available := make([]string, len(currentNode.Options))
		for i, opt := range currentNode.Options {
			available[i] = opt.Text
		}
		data, _ := json.Marshal(available)
		return mcp.NewToolResultError("Choice not found. Available options: " + string(data)), nil
	}

	nextNode, ok := s.state.Advance(selected.NodeID.String())
	if !ok {
		return mcp.NewToolResultError("Next story node not found"), nil
	}

	result := map[string]interface{}{
		"success":         true,
		"selected_choice": selected.Text,
		"current_content": nextNode.Content,
		"is_ending":       nextNode.IsEnding,
		"options":         nextNode.Options,
	}
	if nextNode.IsEnding {
		result["is_winning_ending"] = nextNode.IsWinningEnding
		result["message"] = "Story completed!"
	}
	return jsonResult(result)
}

func (s *Server) handleGetCurrentStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	story, currentNode, ok := s.state.CurrentNode()
	if !ok {
		return jsonResult(map[string]interface{}{
			"success":          true,
			"has_active_story": false,
			"message":          "No active story. Create a new story to start playing.",
		})
	}

	return jsonResult(map[string]interface{}{
		"success":          true,
		"has_active_story": true,
		"story_id":         story.ID.String(),
		"story_title":      story.Title,
		"current_content":  currentNode.Content,
		"is_ending":        currentNode.IsEnding,
		"options":          currentNode.Options,
	})
}

func (s *Server) handleListAvailableOptions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, currentNode, ok := s.state.CurrentNode()
	if !ok {
		return mcp.NewToolResultError("No active story found."), nil
	}

	if currentNode.IsEnding {
		return jsonResult(map[string]interface{}{
			"success": true,
			"options": []interface{}{},
			"message": "Story has ended. No more choices available.",
		})
	}

	options := make([]map[string]interface{}, len(currentNode.Options))
	for i, opt := range currentNode.Options {
		options[i] = map[string]interface{}{
			"number": i + 1,
			"text":   opt.Text,
		}
	}
	return jsonResult(map[string]interface{}{
		"success": true,
		"options": options,
		"message": fmt.Sprintf("Available choices: %d", len(options)),
	})
}
