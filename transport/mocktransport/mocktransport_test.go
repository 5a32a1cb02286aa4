package mocktransport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptedResponsesReplayInOrder(t *testing.T) {
	mt := New().
		Respond("eth_blockNumber", "0x1").
		Respond("eth_blockNumber", "0x2")

	var got string
	require.NoError(t, mt.Request(context.Background(), &got, "eth_blockNumber"))
	assert.Equal(t, "0x1", got)
	require.NoError(t, mt.Request(context.Background(), &got, "eth_blockNumber"))
	assert.Equal(t, "0x2", got)

	// The queue is exhausted.
	require.Error(t, mt.Request(context.Background(), &got, "eth_blockNumber"))
}

func TestUnscriptedRequestFails(t *testing.T) {
	mt := New()
	var got string
	err := mt.Request(context.Background(), &got, "eth_chainId")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eth_chainId")
}

func TestFailReturnsScriptedError(t *testing.T) {
	mt := New().Fail("eth_call", assert.AnError)
	var got string
	err := mt.Request(context.Background(), &got, "eth_call")
	require.ErrorIs(t, err, assert.AnError)
}

func TestCallsAreRecorded(t *testing.T) {
	mt := New().
		Respond("eth_getBalance", "0x0").
		Respond("eth_chainId", "0x1")

	var got string
	require.NoError(t, mt.Request(context.Background(), &got, "eth_getBalance", "0xabc", "latest"))
	require.NoError(t, mt.Request(context.Background(), &got, "eth_chainId"))

	calls := mt.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "eth_getBalance", calls[0].Method)
	assert.Equal(t, []any{"0xabc", "latest"}, calls[0].Params)
	assert.Equal(t, 1, mt.CallCount("eth_chainId"))
}

func TestRequestHonorsContextCancellation(t *testing.T) {
	mt := New().Respond("eth_chainId", "0x1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var got string
	require.ErrorIs(t, mt.Request(ctx, &got, "eth_chainId"), context.Canceled)
	assert.Empty(t, mt.Calls())
}
