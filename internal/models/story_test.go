package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func validCompleteStory() *CompleteStory {
	rootID := uuid.New()
	endID := uuid.New()
	root := &StoryNode{
		ID:      rootID,
		IsRoot:  true,
		Options: []StoryOption{{Text: "go", NodeID: endID}},
	}
	end := &StoryNode{ID: endID, IsEnding: true, IsWinningEnding: true}
	return &CompleteStory{
		ID:       uuid.New(),
		RootNode: root,
		AllNodes: map[string]*StoryNode{
			rootID.String(): root,
			endID.String():  end,
		},
	}
}

func TestCompleteStory_Validate(t *testing.T) {
	assert.NoError(t, validCompleteStory().Validate())
}

func TestCompleteStory_Validate_NoRoot(t *testing.T) {
	story := validCompleteStory()
	story.RootNode = nil
	assert.ErrorIs(t, story.Validate(), ErrStoryTreeInvalid)
}

func TestCompleteStory_Validate_TwoRoots(t *testing.T) {
	story := validCompleteStory()
	extra := &StoryNode{ID: uuid.New(), IsRoot: true, IsEnding: true}
	story.AllNodes[extra.ID.String()] = extra
	assert.ErrorIs(t, story.Validate(), ErrStoryTreeInvalid)
}

func TestCompleteStory_Validate_DanglingOption(t *testing.T) {
	story := validCompleteStory()
	story.RootNode.Options = append(story.RootNode.Options, StoryOption{Text: "void", NodeID: uuid.New()})
	assert.ErrorIs(t, story.Validate(), ErrStoryTreeInvalid)
}

func TestCompleteStory_Validate_EndingWithOptions(t *testing.T) {
	story := validCompleteStory()
	for _, node := range story.AllNodes {
		if node.IsEnding {
			node.Options = []StoryOption{{Text: "impossible", NodeID: story.RootNode.ID}}
		}
	}
	assert.ErrorIs(t, story.Validate(), ErrStoryTreeInvalid)
}

func TestCompleteStory_Node(t *testing.T) {
	story := validCompleteStory()
	assert.Equal(t, story.RootNode, story.Node(story.RootNode.ID))
	assert.Nil(t, story.Node(uuid.New()))
}

func TestJobStatus_IsTerminal(t *testing.T) {
	assert.False(t, JobStatusPending.IsTerminal())
	assert.False(t, JobStatusProcessing.IsTerminal())
	assert.True(t, JobStatusCompleted.IsTerminal())
	assert.True(t, JobStatusFailed.IsTerminal())
}
