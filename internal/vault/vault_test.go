package vault

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitMount(t *testing.T) {
	m, r := splitMount("secret/router/db")
	assert.Equal(t, "secret", m)
	assert.Equal(t, "router/db", r)

	m, r = splitMount("secret")
	assert.Equal(t, "secret", m)
	assert.Empty(t, r)
}

func TestGetKVCaches(t *testing.T) {
	calls := 0
	c := newClient(func(_ context.Context, mount, rel string) (map[string]any, error) {
		calls++
		assert.Equal(t, "secret", mount)
		assert.Equal(t, "router/db", rel)
		return map[string]any{"password": "s3cret", "port": 3306}, nil
	})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	v, err := c.Secret(ctx, "secret/router/db", "password")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)

	_, err = c.Secret(ctx, "secret/router/db", "password")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	now = now.Add(SecretTTL + time.Second)
	_, err = c.Secret(ctx, "secret/router/db", "password")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	_, err = c.GetKV(ctx, "secret/router/db", "port", 0)
	assert.Error(t, err, "non-string values are rejected")

	_, err = c.GetKV(ctx, "secret/router/db", "missing", 0)
	assert.Error(t, err)

	_, err = c.GetKV(ctx, "", "password", 0)
	assert.Error(t, err)
}

func TestGetKVError(t *testing.T) {
	boom := errors.New("permission denied")
	c := newClient(func(context.Context, string, string) (map[string]any, error) {
		return nil, boom
	})
	_, err := c.Secret(context.Background(), "secret/x", "k")
	assert.ErrorIs(t, err, boom)
}

func TestNewRequiresAddr(t *testing.T) {
	t.Setenv("VAULT_ADDR", "")
	_, err := New(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}
