// Package oracle is the boundary to the language model that paraphrases,
// ranks and corrupts benchmark answers.
package oracle

import (
	"context"

	"github.com/GiovanniGatti/trutheval/internal/cost"
)

// Role is the speaker of a message.
type Role string

const (
	System    Role = "system"
	User      Role = "user"
	Assistant Role = "assistant"
)

// Message is one turn of a conversation sent to the oracle.
type Message struct {
	Role    Role
	Content string
}

// UserMessage is shorthand for a single user turn.
func UserMessage(content string) Message {
	return Message{Role: User, Content: content}
}

// Oracle answers an ordered conversation with a single text response.
type Oracle interface {
	Query(ctx context.Context, messages []Message) (string, error)
}

// Func adapts a plain function to Oracle.
type Func func(ctx context.Context, messages []Message) (string, error)

// Query calls f.
func (f Func) Query(ctx context.Context, messages []Message) (string, error) {
	return f(ctx, messages)
}

// Completion is a provider response together with the tokens it consumed.
type Completion struct {
	Text  string
	Usage cost.Usage
}

// Completer is implemented by provider adapters. Unlike Oracle it reports
// token usage so calls can be priced.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (Completion, error)
}

// Metered turns a Completer into an Oracle that records every call in
// ledger under the given step name. A nil ledger records nothing.
func Metered(c Completer, ledger *cost.Ledger, step string) Oracle {
	return Func(func(ctx context.Context, messages []Message) (string, error) {
		out, err := c.Complete(ctx, messages)
		if err != nil {
			return "", err
		}
		if ledger != nil {
			ledger.Record(step, out.Usage)
		}
		return out.Text, nil
	})
}

// split separates system instructions from the conversation turns.
func split(messages []Message) (system string, turns []Message) {
	for _, m := range messages {
		if m.Role == System {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		turns = append(turns, m)
	}
	return system, turns
}
