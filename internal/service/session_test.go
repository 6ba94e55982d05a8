package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRegistry_SerializesSameUser(t *testing.T) {
	registry := NewSessionRegistry()
	ctx := context.Background()

	first, err := registry.Acquire(ctx, "u1")
	require.NoError(t, err)

	acquired := make(chan *Session)
	go func() {
		s, err := registry.Acquire(ctx, "u1")
		if err == nil {
			acquired <- s
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second handler acquired the session while the first still holds it")
	case <-time.After(50 * time.Millisecond):
	}

	first.SetState(StateAwaitingTimeInput{})
	registry.Release(first)

	select {
	case second := <-acquired:
		assert.IsType(t, StateAwaitingTimeInput{}, second.State())
		registry.Release(second)
	case <-time.After(time.Second):
		t.Fatal("second handler never acquired the session")
	}
}

func TestSessionRegistry_OtherUsersNotBlocked(t *testing.T) {
	registry := NewSessionRegistry()
	ctx := context.Background()

	held, err := registry.Acquire(ctx, "u1")
	require.NoError(t, err)
	defer registry.Release(held)

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	other, err := registry.Acquire(ctx, "u2")
	require.NoError(t, err)
	registry.Release(other)
}

func TestSessionRegistry_AcquireHonorsContext(t *testing.T) {
	registry := NewSessionRegistry()
	held, err := registry.Acquire(context.Background(), "u1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = registry.Acquire(ctx, "u1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	registry.Release(held)
	assert.Equal(t, 0, registry.Len())
}

func TestSessionRegistry_EvictsOnlyIdleSessions(t *testing.T) {
	registry := NewSessionRegistry()
	ctx := context.Background()

	s, err := registry.Acquire(ctx, "idle")
	require.NoError(t, err)
	registry.Release(s)
	assert.Equal(t, 0, registry.Len())

	s, err = registry.Acquire(ctx, "busy")
	require.NoError(t, err)
	s.SetState(StateAskingMode{Idiom: "山清水秀"})
	registry.Release(s)
	assert.Equal(t, 1, registry.Len())

	st, err := registry.Peek(ctx, "busy")
	require.NoError(t, err)
	assert.Equal(t, StateAskingMode{Idiom: "山清水秀"}, st)
}

func TestStateAfterMenu(t *testing.T) {
	conv := NewConversation(4)
	tests := []struct {
		name    string
		current State
		action  string
		want    State
	}{
		{"awaiting idiom is cleared", StateAwaitingIdiomInput{}, ActionIdiom, StateIdle{}},
		{"awaiting time is cleared", StateAwaitingTimeInput{}, ActionSettings, StateIdle{}},
		{"practice is cleared", StatePracticeAwaitingAnswer{}, ActionExitAskingMode, StateIdle{}},
		{"asking kept for its exit", StateAskingMode{Idiom: "x"}, ActionExitAskingMode, StateAskingMode{Idiom: "x"}},
		{"asking cleared otherwise", StateAskingMode{Idiom: "x"}, ActionExitFreeMode, StateIdle{}},
		{"free kept for its exit", StateFreeMode{Conversation: conv}, ActionExitFreeMode, StateFreeMode{Conversation: conv}},
		{"free cleared otherwise", StateFreeMode{Conversation: conv}, ActionBack, StateIdle{}},
		{"unknown action", StateAwaitingTimeInput{}, "nope", StateIdle{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stateAfterMenu(tt.current, tt.action))
		})
	}
}
