package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBroadcastLedger_WithoutRedisAlwaysAllows(t *testing.T) {
	ledger := NewBroadcastLedger(nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := ledger.MarkSent(ctx, "2026-10-14", "09:00", "u1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.NoError(t, ledger.Release(ctx, "2026-10-14", "09:00", "u1"))
}

func TestLedgerKey_IncludesMinute(t *testing.T) {
	assert.Equal(t, "broadcast:2026-10-14:09:00:u1", ledgerKey("2026-10-14", "09:00", "u1"))
	assert.NotEqual(t, ledgerKey("2026-10-14", "09:00", "u1"), ledgerKey("2026-10-14", "09:05", "u1"))
}
