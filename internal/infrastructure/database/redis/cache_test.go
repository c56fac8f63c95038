package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/geometax/pkg/errors"
)

type CacheTestSuite struct {
	suite.Suite
	client *Client
	mock   redismock.ClientMock
	cache  Cache
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	s.client = &Client{rdb: db, logger: logging.NewNopLogger()}
	s.cache = NewCache(s.client, logging.NewNopLogger(), WithPrefix("test:"))
}

func (s *CacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func (s *CacheTestSuite) TestGet_Hit() {
	payload, _ := json.Marshal([]string{"POLR2A", "RPB1"})
	s.mock.ExpectGet("test:synonyms:pol2").SetVal(string(payload))

	var dest []string
	err := s.cache.Get(context.Background(), "synonyms:pol2", &dest)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"POLR2A", "RPB1"}, dest)
}

func (s *CacheTestSuite) TestGet_Miss() {
	s.mock.ExpectGet("test:synonyms:nope").RedisNil()

	var dest []string
	err := s.cache.Get(context.Background(), "synonyms:nope", &dest)

	assert.ErrorIs(s.T(), err, ErrCacheMiss)
}

func (s *CacheTestSuite) TestGet_NullMarkerIsMiss() {
	s.mock.ExpectGet("test:synonyms:empty").SetVal(nullValue)

	var dest []string
	err := s.cache.Get(context.Background(), "synonyms:empty", &dest)

	assert.ErrorIs(s.T(), err, ErrCacheMiss)
}

func (s *CacheTestSuite) TestDelete_PrefixesKeys() {
	s.mock.ExpectDel("test:a", "test:b").SetVal(2)

	err := s.cache.Delete(context.Background(), "a", "b")
	assert.NoError(s.T(), err)
}

func (s *CacheTestSuite) TestGetOrSet_LoaderErrorPropagates() {
	s.mock.ExpectGet("test:k").RedisNil()

	boom := errors.New(errors.ErrCodeOracleCallFailed, "boom")
	var dest []string
	err := s.cache.GetOrSet(context.Background(), "k", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return nil, boom
	})

	assert.ErrorIs(s.T(), err, boom)
}

func (s *CacheTestSuite) TestGetOrSet_NilResultIsNullCached() {
	s.mock.ExpectGet("test:k").RedisNil()
	s.mock.ExpectSet("test:k", nullValue, time.Minute).SetVal("OK")

	c := NewCache(s.client, logging.NewNopLogger(), WithPrefix("test:"), WithNullCacheTTL(time.Minute))
	var dest []string
	err := c.GetOrSet(context.Background(), "k", &dest, time.Hour, func(context.Context) (interface{}, error) {
		return nil, nil
	})

	assert.ErrorIs(s.T(), err, ErrCacheMiss)
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func TestJitterTTL_Bounds(t *testing.T) {
	t.Parallel()

	c := &redisCache{}
	base := time.Hour
	for i := 0; i < 100; i++ {
		got := c.jitterTTL(base)
		assert.GreaterOrEqual(t, got, time.Duration(float64(base)*0.9))
		assert.LessOrEqual(t, got, time.Duration(float64(base)*1.1))
	}
	assert.Zero(t, c.jitterTTL(0))
}

func TestLock_TryLock(t *testing.T) {
	t.Parallel()

	db, mock := redismock.NewClientMock()
	client := &Client{rdb: db, logger: logging.NewNopLogger()}
	lock := NewLock(client, logging.NewNopLogger(), "refdata", WithLockTTL(time.Minute)).(*redisLock)

	mock.ExpectSetNX(lock.key, lock.token, time.Minute).SetVal(true)
	ok, err := lock.TryLock(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectSetNX(lock.key, lock.token, time.Minute).SetVal(false)
	ok, err = lock.TryLock(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}
