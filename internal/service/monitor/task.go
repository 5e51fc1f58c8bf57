package monitor

import (
	"context"

	"github.com/apexscan/apex-scanner/internal/schedule"
)

type scanTask struct {
	scanner *Scanner
}

// NewScanTask wraps the scanner for the schedule loop.
func NewScanTask(scanner *Scanner) schedule.Task {
	return &scanTask{scanner: scanner}
}

func (t *scanTask) Run(ctx context.Context) error {
	return t.scanner.Scan(ctx)
}

func (t *scanTask) Name() string {
	return "volume spike scan"
}

type refreshTask struct {
	universe *Universe
}

// NewRefreshTask wraps the periodic universe refresh.
func NewRefreshTask(universe *Universe) schedule.Task {
	return &refreshTask{universe: universe}
}

func (t *refreshTask) Run(ctx context.Context) error {
	t.universe.Refresh(ctx)
	return nil
}

func (t *refreshTask) Name() string {
	return "universe refresh"
}
