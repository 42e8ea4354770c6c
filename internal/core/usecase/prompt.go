package usecase

import (
	"fmt"
	"strings"

	"github.com/antonkuzmin/citedoc/internal/core/domain"
)

const defaultHistoryWindow = 12

const systemPrompt = `You are an assistant answering questions about a fixed document corpus.
Use ONLY the provided CONTEXT.
If something is not in the context, say you don't know and ask a follow-up question.
Cite supporting passages using bracket citations like [1], [2].
Be concise and practical.`

// buildMessages assembles the generation input: system rules, a bounded
// window of prior turns, then the question with its context pack. Turns with
// an unknown role or empty text are dropped silently.
func buildMessages(question, context string, history []domain.ChatTurn, historyWindow int) []domain.ChatMessage {
	if historyWindow <= 0 {
		historyWindow = defaultHistoryWindow
	}

	messages := make([]domain.ChatMessage, 0, len(history)+2)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: systemPrompt})

	turns := history
	if len(turns) > historyWindow {
		turns = turns[len(turns)-historyWindow:]
	}
	for _, turn := range turns {
		if turn.Role != domain.RoleUser && turn.Role != domain.RoleAssistant {
			continue
		}
		text := strings.TrimSpace(turn.Text)
		if text == "" {
			continue
		}
		messages = append(messages, domain.ChatMessage{Role: turn.Role, Content: text})
	}

	user := fmt.Sprintf(
		"QUESTION:\n%s\n\nCONTEXT:\n%s\n\nWrite an answer grounded in the context. Include citations like [1], [2].",
		question, context,
	)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: user})
	return messages
}
