package store

import "github.com/rcliao/agent-state/internal/model"

// chatLog is an append-only transcript.
type chatLog struct {
	messages []model.ChatMessage
}

func (l *chatLog) append(role, content string) {
	l.messages = append(l.messages, model.ChatMessage{Role: role, Content: content})
}

// all returns a copy so callers never observe later appends.
func (l *chatLog) all() []model.ChatMessage {
	out := make([]model.ChatMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *chatLog) clear() {
	l.messages = nil
}

func (l *chatLog) len() int {
	return len(l.messages)
}
