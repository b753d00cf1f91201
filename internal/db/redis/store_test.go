package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/relevex/internal/db"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	err := s.Ping(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %T", err)
	}
}

func TestNewStore_NoAddrs(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error")
	}
}

// --- kv.go tests ---

func TestGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "prefs:u1")).
		Return(mock.Result(mock.RedisBlobString(`{"userId":"u1"}`)))

	s := NewStoreForTest(c)
	data, err := s.Get(context.Background(), "prefs:u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"userId":"u1"}` {
		t.Errorf("unexpected data: %s", data)
	}
}

func TestGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "prefs:u1")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "prefs:u1")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestGet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "prefs:u1")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "prefs:u1")
	if errors.Is(err, db.ErrKeyNotFound) {
		t.Error("should not be ErrKeyNotFound for network errors")
	}
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %T", err)
	}
}

// --- stream.go tests ---

func TestXAdd_Trimmed(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("XADD", "events", "MAXLEN", "~", "1000", "*", "id", "e1", "data", "{}")).
		Return(mock.Result(mock.RedisBlobString("1718000000000-0")))

	s := NewStoreForTest(c)
	id, err := s.XAdd(context.Background(), db.StreamEntry{
		Stream: "events",
		MaxLen: 1000,
		Fields: [][2]string{{"id", "e1"}, {"data", "{}"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "1718000000000-0" {
		t.Errorf("id = %q", id)
	}
}

func TestXAdd_Untrimmed(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("XADD", "events", "*", "id", "e1")).
		Return(mock.Result(mock.RedisBlobString("1-0")))

	s := NewStoreForTest(c)
	if _, err := s.XAdd(context.Background(), db.StreamEntry{
		Stream: "events",
		Fields: [][2]string{{"id", "e1"}},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestXAdd_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	s := NewStoreForTest(c)
	if _, err := s.XAdd(context.Background(), db.StreamEntry{Stream: "events"}); !isDBError(err) {
		t.Errorf("expected db.Error for empty fields, got %v", err)
	}

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "XADD" })).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	_, err := s.XAdd(context.Background(), db.StreamEntry{Stream: "events", Fields: [][2]string{{"k", "v"}}})
	if !errors.Is(err, context.DeadlineExceeded) || !isDBError(err) {
		t.Errorf("expected wrapped deadline error, got %v", err)
	}
}

// --- helpers ---

// isDBError is a test helper for checking wrapped db.Error.
func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}
