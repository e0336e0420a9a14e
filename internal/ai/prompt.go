package ai

import "fmt"

// systemPromptTemplate - шаблон системного промта для генерации дерева истории.
// Промт требует от модели чистый JSON без markdown-обертки, но парсер все
// равно готов к ответу в code fence.
const systemPromptTemplate = `You are a creative story writer that creates engaging choose-your-own-adventure stories.
Generate a complete branching story with multiple paths and endings in JSON format.

The story structure requirements:
1. The story tree must be at most %d levels deep (the root node is level 1).
2. Every non-ending node must have between 1 and %d options.
3. Every ending node must have an empty options list and "is_ending": true.
4. At least one ending must be a winning ending ("is_winning_ending": true).
5. Node content should be 2-4 sentences of vivid second-person narration.
6. Option text should be a short imperative phrase describing the choice.

Respond ONLY with a single JSON object, no markdown fences and no commentary, in exactly this shape:
{
  "title": "Story Title",
  "root": {
    "content": "Node narration...",
    "is_ending": false,
    "is_winning_ending": false,
    "options": [
      {
        "text": "Choice description",
        "node": { ...same node shape, recursively... }
      }
    ]
  }
}`

// userInputTemplate - шаблон пользовательского сообщения с темой истории
const userInputTemplate = `Create the story with this theme: %s`

// BuildSystemPrompt собирает системный промт с ограничениями на глубину
// дерева и количество вариантов выбора.
func BuildSystemPrompt(maxDepth, maxOptions int) string {
	return fmt.Sprintf(systemPromptTemplate, maxDepth, maxOptions)
}

// BuildUserInput собирает пользовательское сообщение с темой истории.
func BuildUserInput(theme string) string {
	return fmt.Sprintf(userInputTemplate, theme)
}
