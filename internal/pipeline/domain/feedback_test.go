package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckFeedbackTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    FeedbackStatus
		to      FeedbackStatus
		wantErr bool
	}{
		{"open to acknowledged", FeedbackStatusOpen, FeedbackStatusAcknowledged, false},
		{"acknowledged to resolved", FeedbackStatusAcknowledged, FeedbackStatusResolved, false},
		{"open directly to resolved", FeedbackStatusOpen, FeedbackStatusResolved, false},
		{"resolved cannot reopen", FeedbackStatusResolved, FeedbackStatusOpen, true},
		{"resolved cannot go back to acknowledged", FeedbackStatusResolved, FeedbackStatusAcknowledged, true},
		{"acknowledged cannot go back to open", FeedbackStatusAcknowledged, FeedbackStatusOpen, true},
		{"open to open is not a transition", FeedbackStatusOpen, FeedbackStatusOpen, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckFeedbackTransition(tt.from, tt.to)
			if tt.wantErr {
				var transitionErr *FeedbackTransitionError
				require.ErrorAs(t, err, &transitionErr)
				assert.Equal(t, tt.from, transitionErr.From)
				assert.Equal(t, tt.to, transitionErr.To)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseFeedbackStatus(t *testing.T) {
	for _, valid := range []string{"open", "acknowledged", "resolved"} {
		s, err := ParseFeedbackStatus(valid)
		require.NoError(t, err)
		assert.Equal(t, FeedbackStatus(valid), s)
	}

	_, err := ParseFeedbackStatus("closed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown feedback status")
}

func TestParseFeedbackPriority(t *testing.T) {
	for _, valid := range []string{"low", "normal", "high", "urgent"} {
		p, err := ParseFeedbackPriority(valid)
		require.NoError(t, err)
		assert.Equal(t, FeedbackPriority(valid), p)
	}

	_, err := ParseFeedbackPriority("critical")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown feedback priority")
}

func TestParseFeedbackType(t *testing.T) {
	for _, valid := range []string{"technical", "creative", "general", "revision"} {
		ft, err := ParseFeedbackType(valid)
		require.NoError(t, err)
		assert.Equal(t, FeedbackType(valid), ft)
	}

	_, err := ParseFeedbackType("design")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown feedback type")
}
