package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/tractorstats/tractor-stats/internal/platform/logging"
)

const (
	refreshStatusSuccess = "success"
	refreshStatusFailed  = "failed"

	maxRefreshWorkers = 8
)

// RefreshNotifier receives the outcome of a forced recomputation, e.g. a
// webhook that pings the dashboard channel.
type RefreshNotifier interface {
	PublishRefresh(ctx context.Context, result RefreshResult) error
}

type RefreshInput struct {
	// DeckModes narrows the refresh; empty means every configured mode.
	DeckModes  []int
	MaxWorkers int
}

type RefreshTaskResult struct {
	Decks          int    `json:"decks"`
	Status         string `json:"status"`
	Games          int    `json:"games"`
	Players        int    `json:"players"`
	SkippedRecords int    `json:"skipped_records"`
	DurationMs     int64  `json:"duration_ms"`
	Message        string `json:"message,omitempty"`
}

type RefreshResult struct {
	TaskCount    int                 `json:"task_count"`
	SuccessCount int                 `json:"success_count"`
	FailedCount  int                 `json:"failed_count"`
	WorkerCount  int                 `json:"worker_count"`
	Tasks        []RefreshTaskResult `json:"tasks"`
}

// RefreshService invalidates cached snapshots and recomputes them on a
// worker pool, one task per deck mode.
type RefreshService struct {
	stats    *StatsService
	notifier RefreshNotifier
	logger   *logging.Logger
}

func NewRefreshService(stats *StatsService, notifier RefreshNotifier, logger *logging.Logger) *RefreshService {
	if logger == nil {
		logger = logging.Default()
	}

	return &RefreshService{
		stats:    stats,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *RefreshService) Refresh(ctx context.Context, input RefreshInput) (RefreshResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RefreshService.Refresh")
	defer span.End()

	modes := input.DeckModes
	if len(modes) == 0 {
		modes = s.stats.DeckModes()
	}
	for _, mode := range modes {
		if !s.stats.validDecks(mode) {
			return RefreshResult{}, fmt.Errorf("%w: unsupported deck mode %d", ErrInvalidInput, mode)
		}
	}

	workerCount := input.MaxWorkers
	if workerCount < 1 {
		workerCount = len(modes)
	}
	if workerCount > maxRefreshWorkers {
		workerCount = maxRefreshWorkers
	}

	s.stats.Invalidate(ctx)

	workerPool, err := ants.NewPool(workerCount)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer workerPool.Release()

	var mu sync.Mutex
	tasks := make([]RefreshTaskResult, 0, len(modes))

	var workers sync.WaitGroup
	for _, mode := range modes {
		workers.Add(1)
		if err := workerPool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := RefreshTaskResult{Decks: mode, Status: refreshStatusSuccess}

			snapshot, snapErr := s.stats.Snapshot(ctx, mode)
			if snapErr != nil {
				row.Status = refreshStatusFailed
				row.Message = snapErr.Error()
			} else {
				row.Games = snapshot.Global.TotalGames
				row.Players = len(snapshot.Players)
				row.SkippedRecords = snapshot.SkippedRecords
			}
			row.DurationMs = time.Since(start).Milliseconds()

			mu.Lock()
			tasks = append(tasks, row)
			mu.Unlock()
		}); err != nil {
			workers.Done()
			return RefreshResult{}, fmt.Errorf("submit refresh task decks=%d: %w", mode, err)
		}
	}
	workers.Wait()

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Decks < tasks[j].Decks })

	result := RefreshResult{
		TaskCount:   len(tasks),
		WorkerCount: workerCount,
		Tasks:       tasks,
	}
	for _, task := range tasks {
		if task.Status == refreshStatusSuccess {
			result.SuccessCount++
		} else {
			result.FailedCount++
		}
	}

	s.logger.InfoContext(ctx, "snapshot refresh finished",
		"tasks", result.TaskCount,
		"success", result.SuccessCount,
		"failed", result.FailedCount,
	)

	if s.notifier != nil {
		if notifyErr := s.notifier.PublishRefresh(ctx, result); notifyErr != nil {
			s.logger.WarnContext(ctx, "refresh webhook notification failed", "error", notifyErr)
		}
	}

	return result, nil
}
