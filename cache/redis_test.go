package cache

import (
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
)

func TestRedisCache_Get_Hit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisCacheFromClient(db, 3600, "test:")

	mock.ExpectGet("test:en:abc").SetVal(`{"text":"你好","trans":"Hello"}`)

	e, ok := cache.Get("en:abc")
	if !ok {
		t.Error("Expected cache hit")
	}
	if e.Text != "你好" || e.Trans != "Hello" {
		t.Errorf("Unexpected entry %+v", e)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisCache_Get_LegacyValue(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisCacheFromClient(db, 0, "test:")
	mock.ExpectGet("test:en:abc").SetVal("Hello")

	e, ok := cache.Get("en:abc")
	if !ok || e.Trans != "Hello" || e.Text != "" {
		t.Errorf("Legacy value should decode as bare translation, got %+v (ok=%v)", e, ok)
	}
}

func TestRedisCache_Get_Miss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisCacheFromClient(db, 3600, "test:")

	mock.ExpectGet("test:mykey").RedisNil()

	if _, ok := cache.Get("mykey"); ok {
		t.Error("Expected cache miss")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisCache_Set(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisCacheFromClient(db, 3600, "test:")

	mock.ExpectSet("test:en:abc", `{"text":"你好","trans":"Hello"}`, 3600*time.Second).SetVal("OK")

	if err := cache.Set("en:abc", Entry{Text: "你好", Trans: "Hello"}); err != nil {
		t.Errorf("Set failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisCache_Set_NoTTL(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisCacheFromClient(db, 0, "test:")

	mock.ExpectSet("test:k", `{"text":"a","trans":"b"}`, 0).SetVal("OK")

	if err := cache.Set("k", Entry{Text: "a", Trans: "b"}); err != nil {
		t.Errorf("Set failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisCache_DefaultPrefix(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisCacheFromClient(db, 3600, "")

	mock.ExpectGet(DefaultRedisPrefix + "fr:hash123").SetVal(`{"text":"x","trans":"y"}`)

	if e, ok := cache.Get("fr:hash123"); !ok || e.Trans != "y" {
		t.Errorf("Expected 'y', got %+v (ok=%v)", e, ok)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisCache_Ping(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisCacheFromClient(db, 3600, "test:")

	mock.ExpectPing().SetVal("PONG")

	if err := cache.Ping(); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
	if err := cache.Flush(); err != nil {
		t.Errorf("Flush should be a no-op, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}
