package lib

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestRedisCacheMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewRedisCache(client)

	mock.ExpectGet("events_list").RedisNil()

	_, err := cache.Get(context.Background(), "events_list")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheRoundTrip(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewRedisCache(client)

	mock.ExpectSet("events_list", `[{"id":1}]`, 5*time.Minute).SetVal("OK")
	mock.ExpectGet("events_list").SetVal(`[{"id":1}]`)

	err := cache.Set(context.Background(), "events_list", `[{"id":1}]`, 5*time.Minute)
	assert.NoError(t, err)

	val, err := cache.Get(context.Background(), "events_list")
	assert.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, val)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheInvalidate(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewRedisCache(client)

	mock.ExpectDel("events_list").SetVal(1)

	err := cache.Invalidate(context.Background(), "events_list")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
