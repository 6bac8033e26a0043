package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEmptyContext(t *testing.T) {
	ctx := context.Background()
	_, ok := PrincipalFrom(ctx)
	assert.False(t, ok)
	assert.Zero(t, UserID(ctx))
	assert.Empty(t, Role(ctx))
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, ClientIP(ctx))
	assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
}

func TestValuesRoundTrip(t *testing.T) {
	fixed := time.Date(2024, time.April, 1, 9, 0, 0, 0, time.UTC)
	ctx := WithPrincipal(context.Background(), Principal{UserID: 7, Username: "rosa", Role: "secretaria"})
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithClientMetadata(ctx, "10.0.0.9", "curl/8")
	ctx = WithTime(ctx, fixed)

	assert.Equal(t, int64(7), UserID(ctx))
	assert.Equal(t, "secretaria", Role(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "10.0.0.9", ClientIP(ctx))
	assert.Equal(t, "curl/8", UserAgent(ctx))
	assert.Equal(t, fixed, Now(ctx))
}
