package chat

import (
	"fmt"
	"strings"
)

const helpText = `Commands:
  /help          show this help
  /models        list available models
  /model <id>    switch model
  /clear         start a new conversation
  /cost          show session token usage and cost
  /quit          exit
`

// Command runs a slash command. It reports false when the session should end.
func (s *Session) Command(line string) (bool, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true, nil
	}

	switch strings.ToLower(parts[0]) {
	case "/quit", "/exit", "/q":
		return false, nil

	case "/help", "/h", "/?", "/":
		s.printf("%s", helpText)

	case "/models":
		s.printModels()

	case "/model":
		if len(parts) < 2 {
			m := s.opts.Model
			s.printf("Current model: %s (%s)\n", m.DisplayName, m.ID)
			return true, nil
		}
		if err := s.SetModel(parts[1]); err != nil {
			return true, fmt.Errorf("%w (see /models)", err)
		}
		s.printf("Switched to %s\n", s.opts.Model.DisplayName)

	case "/clear":
		s.conv.Clear()
		s.printf("Conversation cleared\n")

	case "/cost":
		if !s.opts.TokenTracking {
			s.printf("Token tracking is disabled (TOKEN_TRACKING=false)\n")
			return true, nil
		}
		s.printf("%s\n", s.totals)

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", parts[0])
	}
	return true, nil
}

func (s *Session) printModels() {
	for _, m := range s.registry.List() {
		marker := " "
		if m.ID == s.opts.Model.ID {
			marker = "*"
		}
		s.printf("%s %-28s %-18s $%g/$%g per MTok  %s\n",
			marker, m.ID, m.DisplayName, m.InputCostPerMillion, m.OutputCostPerMillion, m.Description)
	}
}
