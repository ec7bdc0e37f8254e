package adapter_test

import (
	"testing"

	"github.com/m-mizutani/argubots/pkg/adapter"
	"github.com/m-mizutani/gt"
)

func TestSplitSystem(t *testing.T) {
	system, rest := adapter.SplitSystem([]adapter.Message{
		{Role: adapter.RoleSystem, Content: "Be polite."},
		{Role: adapter.RoleUser, Content: "Hi"},
		{Role: adapter.RoleSystem, Content: "Answer briefly."},
		{Role: adapter.RoleAssistant, Content: "Hello"},
	})

	gt.Equal(t, system, "Be polite.\n\nAnswer briefly.")
	gt.A(t, rest).Length(2)
	gt.Equal(t, rest[0].Content, "Hi")
	gt.Equal(t, rest[1].Role, adapter.RoleAssistant)
}

func TestSplitSystemStartsWithUser(t *testing.T) {
	t.Run("system only", func(t *testing.T) {
		_, rest := adapter.SplitSystem([]adapter.Message{
			{Role: adapter.RoleSystem, Content: "Ask a question."},
		})
		gt.A(t, rest).Length(1)
		gt.Equal(t, rest[0].Role, adapter.RoleUser)
	})

	t.Run("assistant first", func(t *testing.T) {
		_, rest := adapter.SplitSystem([]adapter.Message{
			{Role: adapter.RoleAssistant, Content: "I opened."},
			{Role: adapter.RoleUser, Content: "I replied."},
		})
		gt.A(t, rest).Length(3)
		gt.Equal(t, rest[0].Role, adapter.RoleUser)
		gt.Equal(t, rest[1].Content, "I opened.")
	})
}
