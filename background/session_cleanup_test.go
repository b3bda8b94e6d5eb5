package background

import (
	"context"
	"testing"
	"time"

	"github.com/user/wanderlust-go/sessions"
)

func TestSessionCleanupSweepsExpiredRows(t *testing.T) {
	store := sessions.NewMemoryStore(time.Hour)

	session, err := store.Create(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	// Move the store's clock past the session's expiry.
	store.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	stopChan := make(chan struct{})
	done := StartSessionCleanup(store, 10*time.Millisecond, stopChan)

	deadline := time.After(2 * time.Second)
	for {
		if _, err := store.Get(context.Background(), session.Token); err == sessions.ErrNoSession {
			break
		}
		select {
		case <-deadline:
			t.Fatal("expired session was never swept")
		case <-time.After(10 * time.Millisecond):
		}
	}

	close(stopChan)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup goroutine did not stop")
	}
}

func TestSessionCleanupStopsPromptlyWithNothingToDo(t *testing.T) {
	store := sessions.NewMemoryStore(time.Hour)

	stopChan := make(chan struct{})
	done := StartSessionCleanup(store, time.Hour, stopChan)

	close(stopChan)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup goroutine did not stop")
	}
}
