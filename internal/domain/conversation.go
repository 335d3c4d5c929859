package domain

import (
	"fmt"
	"time"
)

// MaxHistorySize bounds a conversation's message history. Exceeding it is a
// construction-time validation failure, not an eviction; callers trim before
// reuse.
const MaxHistorySize = 50

// MessageSender identifies who authored a chat message.
type MessageSender string

const (
	SenderUser  MessageSender = "user"
	SenderAgent MessageSender = "agent"
)

// ChatMessage is a single message within a conversation.
type ChatMessage struct {
	ID        string
	Content   string
	Sender    MessageSender
	Timestamp time.Time
}

// ConversationContext tracks the message history for a chat session.
type ConversationContext struct {
	SessionID      string
	MessageHistory []ChatMessage
	LastActivityAt time.Time
}

// NewConversationContext creates a ConversationContext, rejecting histories
// that already exceed MaxHistorySize.
func NewConversationContext(sessionID string, history []ChatMessage) (*ConversationContext, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	if len(history) > MaxHistorySize {
		return nil, ErrHistoryOverflow
	}

	return &ConversationContext{
		SessionID:      sessionID,
		MessageHistory: history,
		LastActivityAt: time.Now().UTC(),
	}, nil
}

// Append adds a message to the history. It fails when the history is full;
// the caller must trim first.
func (c *ConversationContext) Append(msg ChatMessage) error {
	if len(c.MessageHistory) >= MaxHistorySize {
		return ErrHistoryOverflow
	}

	c.MessageHistory = append(c.MessageHistory, msg)
	c.LastActivityAt = time.Now().UTC()
	return nil
}

// Trim drops the oldest messages so at most keep entries remain.
func (c *ConversationContext) Trim(keep int) {
	if keep < 0 {
		keep = 0
	}
	if len(c.MessageHistory) > keep {
		c.MessageHistory = c.MessageHistory[len(c.MessageHistory)-keep:]
	}
}
