package auth

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevokedBy(t *testing.T) {
	issued := time.Unix(1_760_000_000, 0)

	tests := []struct {
		name    string
		marker  string
		want    bool
		wantErr bool
	}{
		{"issued before cutoff", "1760000100", true, false},
		{"issued at cutoff", "1760000000", true, false},
		{"issued after cutoff", "1759999999", false, false},
		{"surrounding whitespace", " 1760000100\n", true, false},
		{"not a number", "yesterday", false, true},
		{"empty marker", "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := revokedBy(tt.marker, issued)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRevocationKeys(t *testing.T) {
	assert.Equal(t, "mops:session:revoked:jti:abc", jtiKey("abc"))
	assert.Equal(t, "mops:session:revoked:user:u-1", userKey("u-1"))
}

func TestRedisTokenBlacklist_UnreachableStore(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	b := NewRedisTokenBlacklistWithClient(client)
	t.Cleanup(func() { _ = b.Close() })
	ctx := context.Background()

	revoked, err := b.IsBlacklisted(ctx, "jti-1")
	assert.Error(t, err)
	assert.False(t, revoked)

	revoked, err = b.IsUserTokenInvalidated(ctx, "u-1", time.Now())
	assert.Error(t, err)
	assert.False(t, revoked)
}
