package browser

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// TabPool is a fixed set of tabs on one session. URLs are assigned to tabs
// round-robin and each tab runs one task at a time.
type TabPool struct {
	mu    sync.Mutex
	pages []*Page
}

// TaskFunc drives one page for one URL.
type TaskFunc func(ctx context.Context, page *Page, url string) error

// NewTabPool opens tabs on m until the pool has size pages. The session's
// primary page is the first tab.
func NewTabPool(ctx context.Context, m *Manager, size int) (*TabPool, error) {
	if size <= 0 {
		size = DefaultTabPoolSize
	}

	var pages []*Page
	if first := m.Page(); first != nil {
		pages = append(pages, first)
	}
	for len(pages) < size {
		page, err := m.NewPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to open tab %d: %w", len(pages)+1, err)
		}
		pages = append(pages, page)
	}
	return &TabPool{pages: pages}, nil
}

// Size returns the number of tabs.
func (tp *TabPool) Size() int {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return len(tp.pages)
}

// Pages returns the pool's tabs.
func (tp *TabPool) Pages() []*Page {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return append([]*Page(nil), tp.pages...)
}

// Run processes urls across the pool. The first error cancels the
// remaining work and is returned.
func (tp *TabPool) Run(ctx context.Context, urls []string, fn TaskFunc) error {
	pages := tp.Pages()
	if len(pages) == 0 {
		return fmt.Errorf("tab pool is empty")
	}

	queues := make([][]string, len(pages))
	for i, url := range urls {
		queues[i%len(pages)] = append(queues[i%len(pages)], url)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, page := range pages {
		queue := queues[i]
		if len(queue) == 0 {
			continue
		}
		g.Go(func() error {
			for _, url := range queue {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := fn(gctx, page, url); err != nil {
					return fmt.Errorf("%s: %w", url, err)
				}
			}
			return nil
		})
	}
	return g.Wait()
}
