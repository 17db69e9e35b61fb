package chat

import "github.com/namikmesic/claude-tty/internal/anthropic"

// Conversation is the message history sent with every request. A user
// turn stays pending until its reply is committed or rolled back, so a
// failed exchange leaves the history as it was.
type Conversation struct {
	msgs    []anthropic.Message
	pending bool
}

// Ask appends a user turn and returns the messages to send.
func (c *Conversation) Ask(text string) []anthropic.Message {
	if c.pending {
		c.Rollback()
	}
	c.msgs = append(c.msgs, anthropic.Message{Role: anthropic.RoleUser, Content: text})
	c.pending = true
	return append([]anthropic.Message(nil), c.msgs...)
}

// Commit records the assistant reply to the pending turn.
func (c *Conversation) Commit(reply string) {
	if !c.pending {
		return
	}
	c.msgs = append(c.msgs, anthropic.Message{Role: anthropic.RoleAssistant, Content: reply})
	c.pending = false
}

// Rollback drops the pending user turn.
func (c *Conversation) Rollback() {
	if !c.pending {
		return
	}
	c.msgs = c.msgs[:len(c.msgs)-1]
	c.pending = false
}

func (c *Conversation) Clear() {
	c.msgs = nil
	c.pending = false
}

// Turns counts completed user/assistant pairs.
func (c *Conversation) Turns() int {
	n := len(c.msgs)
	if c.pending {
		n--
	}
	return n / 2
}
