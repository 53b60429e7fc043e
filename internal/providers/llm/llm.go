package llm

import "context"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role Role
	Text string
}

// Provider is the generation collaborator. Continue produces the next
// interviewer utterance from system instructions plus the role-tagged
// dialogue so far; ScoreJSON runs a one-shot structured evaluation and
// returns the raw JSON text.
type Provider interface {
	Continue(ctx context.Context, system string, history []Message) (string, error)
	ScoreJSON(ctx context.Context, prompt string) (string, error)
	Close() error
}
