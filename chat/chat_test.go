package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssistant_Respond(t *testing.T) {
	a := NewAssistant()

	t.Run("keyword match", func(t *testing.T) {
		reply := a.Respond("how do I write a loop?")
		assert.Contains(t, reply, "for i in 1 to 10")
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		reply := a.Respond("HELLO there")
		assert.Contains(t, reply, "Hello!")
	})

	t.Run("whole words only", func(t *testing.T) {
		// "history" must not trigger the "hi" greeting
		reply := a.Respond("history")
		assert.NotContains(t, reply, "Hello!")
	})

	t.Run("no keyword falls back", func(t *testing.T) {
		reply := a.Respond("what is the meaning of life")
		assert.Contains(t, reply, "Try asking")
	})

	t.Run("log records every exchange in order", func(t *testing.T) {
		log := a.Log()
		require.Len(t, log, 4)
		assert.Equal(t, "how do I write a loop?", log[0].Input)
		assert.NotEmpty(t, log[0].Reply)
	})
}
