package workflows

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateMachine(t *testing.T) {
	sm := NewStateMachine(map[string][]string{
		"draft":     {"submitted"},
		"submitted": {"verified", "rejected"},
		"verified":  {},
	})

	assert.True(t, sm.CanTransition("draft", "submitted"))
	assert.True(t, sm.CanTransition("draft", "draft"))
	assert.True(t, sm.CanTransition("verified", "verified"))
	assert.False(t, sm.CanTransition("draft", "verified"))
	assert.False(t, sm.CanTransition("unknown", "unknown"))
	assert.Equal(t, []string{"verified", "rejected"}, sm.GetAllowedTransitions("submitted"))
	assert.Empty(t, sm.GetAllowedTransitions("unknown"))
}
