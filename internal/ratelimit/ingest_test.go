package ratelimit

import (
	"context"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptReply struct {
	keys  []string
	reply []any
}

// fakeScripter answers every script call with a canned reply.
type fakeScripter struct {
	calls *[]scriptReply
	reply []any
}

func (f fakeScripter) run(ctx context.Context, keys []string) *redis.Cmd {
	*f.calls = append(*f.calls, scriptReply{keys: keys, reply: f.reply})
	cmd := redis.NewCmd(ctx)
	cmd.SetVal(f.reply)
	return cmd
}

func (f fakeScripter) Eval(ctx context.Context, _ string, keys []string, _ ...any) *redis.Cmd {
	return f.run(ctx, keys)
}

func (f fakeScripter) EvalSha(ctx context.Context, _ string, keys []string, _ ...any) *redis.Cmd {
	return f.run(ctx, keys)
}

func (f fakeScripter) EvalRO(ctx context.Context, _ string, keys []string, _ ...any) *redis.Cmd {
	return f.run(ctx, keys)
}

func (f fakeScripter) EvalShaRO(ctx context.Context, _ string, keys []string, _ ...any) *redis.Cmd {
	return f.run(ctx, keys)
}

func (f fakeScripter) ScriptExists(ctx context.Context, _ ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceCmd(ctx)
}

func (f fakeScripter) ScriptLoad(ctx context.Context, _ string) *redis.StringCmd {
	return redis.NewStringCmd(ctx)
}

func TestDisabledLimiterAllows(t *testing.T) {
	var limiter *IngestLimiter
	res, err := limiter.AllowDevice(context.Background(), "device")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.False(t, limiter.Enabled())
}

func TestAllowDeviceKeysPerDevice(t *testing.T) {
	var calls []scriptReply
	limiter := newIngestLimiter(fakeScripter{calls: &calls, reply: []any{int64(1), "19", int64(1000)}}, 5, 20)

	res, err := limiter.AllowDevice(context.Background(), " 42 ")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 19, res.Remaining)
	assert.Equal(t, 20, res.Limit)
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"agrilink:ingest:device:42"}, calls[0].keys)
}

func TestDeniedReportsRetryAfter(t *testing.T) {
	var calls []scriptReply
	limiter := newIngestLimiter(fakeScripter{calls: &calls, reply: []any{int64(0), "0.5", int64(1000)}}, 5, 20)

	res, err := limiter.AllowDevice(context.Background(), "42")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 100*time.Millisecond, res.RetryAfter)
}

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, 8*time.Second, bucketTTL(5, 20))
	assert.Equal(t, time.Second, bucketTTL(100, 1))
	assert.Equal(t, time.Second, bucketTTL(0, 1))
}
