package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestManagerLoadSaveClear(t *testing.T) {
	m := NewManager()

	if _, ok := m.Load("missing"); ok {
		t.Fatal("Load on an empty manager must miss")
	}

	sess := Session{UserID: uuid.New(), Role: "client", ExpiresAt: time.Now().Add(time.Hour)}
	m.Save("tok", sess)

	got, ok := m.Load("tok")
	if !ok || got.UserID != sess.UserID {
		t.Fatalf("Load after Save: got %+v, ok=%v", got, ok)
	}

	m.Clear("tok")
	if _, ok := m.Load("tok"); ok {
		t.Fatal("Load after Clear must miss")
	}
}

func TestManagerDropsExpiredSessions(t *testing.T) {
	m := NewManager()
	m.Save("tok", Session{UserID: uuid.New(), ExpiresAt: time.Now().Add(-time.Minute)})

	if _, ok := m.Load("tok"); ok {
		t.Fatal("expired session must not be served")
	}
}

func TestZeroSessionIsInvalid(t *testing.T) {
	if (Session{}).Valid() {
		t.Fatal("zero session must be invalid")
	}
}
