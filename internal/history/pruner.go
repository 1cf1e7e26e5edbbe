package history

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner deletes old sessions on a cron schedule.
type Pruner struct {
	store     *Store
	schedule  cron.Schedule
	retention time.Duration
	interval  time.Duration
	now       func() time.Time

	mu      sync.Mutex
	nextRun time.Time
}

// NewPruner parses schedule (standard cron, optional seconds, or a
// descriptor such as @daily). retentionDays <= 0 disables pruning.
func NewPruner(store *Store, schedule string, retentionDays int) (*Pruner, error) {
	parsed, err := parseSchedule(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}
	return &Pruner{
		store:     store,
		schedule:  parsed,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		interval:  time.Minute,
		now:       time.Now,
	}, nil
}

// Start runs the pruner until ctx is done.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		log.Printf("[History] Retention disabled, pruner not started")
		return
	}
	p.mu.Lock()
	p.nextRun = p.schedule.Next(p.now())
	p.mu.Unlock()

	ticker := time.NewTicker(p.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Printf("[History] Stopping pruner")
				return
			case <-ticker.C:
				p.runIfDue(ctx)
			}
		}
	}()
}

// NextRun returns when the next prune is due.
func (p *Pruner) NextRun() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nextRun
}

func (p *Pruner) runIfDue(ctx context.Context) {
	now := p.now()
	p.mu.Lock()
	due := !p.nextRun.IsZero() && !now.Before(p.nextRun)
	if due {
		p.nextRun = p.schedule.Next(now)
	}
	p.mu.Unlock()

	if due {
		if _, err := p.PruneNow(ctx); err != nil {
			log.Printf("[History] Prune failed: %v", err)
		}
	}
}

// PruneNow deletes sessions older than the retention window.
func (p *Pruner) PruneNow(ctx context.Context) (int64, error) {
	if p.retention <= 0 {
		return 0, nil
	}
	cutoff := p.now().Add(-p.retention)
	deleted, err := p.store.Prune(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		log.Printf("[History] Pruned %d sessions older than %s", deleted, cutoff.Format(time.RFC3339))
	}
	return deleted, nil
}

func parseSchedule(schedule string) (cron.Schedule, error) {
	if schedule == "" {
		schedule = "@daily"
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return parser.Parse(schedule)
}
