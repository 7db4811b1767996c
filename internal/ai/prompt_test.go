package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildInputOrdering(t *testing.T) {
	t.Parallel()

	history := []string{"first prompt", "first reply", "second prompt", "second reply"}
	input := BuildInput("third prompt", history)

	require.Len(t, input, 6)
	require.Equal(t, "system", input[0].Role)
	require.Equal(t, SystemPrompt(), input[0].Content)

	require.Equal(t, Message{Role: "user", Content: "first prompt"}, input[1])
	require.Equal(t, Message{Role: "assistant", Content: "first reply"}, input[2])
	require.Equal(t, Message{Role: "user", Content: "second prompt"}, input[3])
	require.Equal(t, Message{Role: "assistant", Content: "second reply"}, input[4])
	require.Equal(t, Message{Role: "user", Content: "third prompt"}, input[5])
}

func TestBuildInputEmptyHistory(t *testing.T) {
	t.Parallel()

	input := BuildInput("once upon a time", nil)
	require.Len(t, input, 2)
	require.Equal(t, "system", input[0].Role)
	require.Equal(t, Message{Role: "user", Content: "once upon a time"}, input[1])
}
