// Package background holds work that runs independently of the HTTP
// request-response cycle. Only one task lives here today: sweeping expired
// session rows so the sessions table does not grow without bound.
package background

import (
	"context"
	"log"
	"time"

	"github.com/user/wanderlust-go/sessions"
)

// sweepTimeout bounds a single cleanup pass.
const sweepTimeout = 30 * time.Second

// StartSessionCleanup launches the expired-session sweeper. It deletes
// expired rows on every tick of interval until stopChan is closed, then
// closes the returned channel so the caller can wait for a clean exit.
//
// Expired sessions are already invisible to reads; the sweep is purely a
// storage reclamation pass, so a failed tick is logged and retried next
// interval rather than treated as fatal.
func StartSessionCleanup(store sessions.Store, interval time.Duration, stopChan <-chan struct{}) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)
		log.Printf("session cleanup: sweeping every %s", interval)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sweep(store)
			case <-stopChan:
				log.Println("session cleanup: stop signal received")
				return
			}
		}
	}()

	return done
}

func sweep(store sessions.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	deleted, err := store.DeleteExpired(ctx)
	if err != nil {
		log.Printf("session cleanup: sweep failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("session cleanup: removed %d expired sessions", deleted)
	}
}
