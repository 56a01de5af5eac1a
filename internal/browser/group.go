package browser

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// SessionJob describes one independent session for RunSessions.
type SessionJob struct {
	Options Options
	Session SessionOptions
}

// SessionFunc drives a connected session.
type SessionFunc func(ctx context.Context, m *Manager, page *Page) error

// RunSessions runs one Manager per job in parallel. Jobs must use
// distinct profiles and ports. Every session is torn down when its func
// returns; the first error cancels the others.
func RunSessions(ctx context.Context, jobs []SessionJob, fn SessionFunc) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		g.Go(func() error {
			m, err := NewManager(job.Options)
			if err != nil {
				return err
			}
			defer m.Close()

			page, err := m.Connect(gctx, job.Session)
			if err != nil {
				return fmt.Errorf("session %s: %w", job.Session.Profile, err)
			}
			return fn(gctx, m, page)
		})
	}
	return g.Wait()
}
