package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/news-composer/internal/config"
	"github.com/news-composer/internal/models"
	"github.com/news-composer/internal/repository"
)

const saveTimeout = 10 * time.Second

type pendingSave struct {
	content  string
	sequence uint64
}

// autosaver is the concrete implementation of Autosaver
type autosaver struct {
	repo     repository.ArticleRepository
	log      zerolog.Logger
	interval time.Duration

	mu       sync.Mutex
	pending  map[string]pendingSave
	statuses map[string]*models.SaveStatus
	written  map[string]uint64
	locks    map[string]*sync.Mutex
	hooks    []func(time.Time)

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	wg      sync.WaitGroup
	running bool
	// Semaphore: buffered channel to limit concurrent content writes
	sem chan struct{}
}

// newAutosaver creates an Autosaver with a worker pool sized for I/O-bound work
func newAutosaver(repo repository.ArticleRepository, cfg config.EditorConfig, log zerolog.Logger) *autosaver {
	maxWorkers := cfg.AutosaveWorkers
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU() * 4
		if maxWorkers > 32 {
			maxWorkers = 32 // Cap to avoid excessive connections
		}
	}
	interval := cfg.AutosaveInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	log.Info().Int("max_workers", maxWorkers).Dur("interval", interval).Msg("Initializing autosave worker pool")

	return &autosaver{
		repo:     repo,
		log:      log.With().Str("service", "autosave").Logger(),
		interval: interval,
		pending:  make(map[string]pendingSave),
		statuses: make(map[string]*models.SaveStatus),
		written:  make(map[string]uint64),
		locks:    make(map[string]*sync.Mutex),
		sem:      make(chan struct{}, maxWorkers),
	}
}

// Enqueue records content as the latest version of an article and returns its
// sequence number. It never blocks on the database.
func (s *autosaver) Enqueue(articleID, content string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := s.statusLocked(articleID)
	status.Sequence++
	status.State = models.SaveStatePending
	status.Error = ""
	s.pending[articleID] = pendingSave{content: content, sequence: status.Sequence}
	return status.Sequence
}

// Status returns the save status of an article
func (s *autosaver) Status(articleID string) models.SaveStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.statuses[articleID]
	if !ok {
		return models.SaveStatus{State: models.SaveStateIdle}
	}
	out := *status
	if status.SavedAt != nil {
		savedAt := *status.SavedAt
		out.SavedAt = &savedAt
	}
	return out
}

// OnTick registers fn to run after every processor tick
func (s *autosaver) OnTick(fn func(now time.Time)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Flush writes the pending content of an article now and reports the outcome
func (s *autosaver) Flush(ctx context.Context, articleID string) (models.SaveStatus, error) {
	s.mu.Lock()
	p, ok := s.pending[articleID]
	if ok {
		delete(s.pending, articleID)
	}
	s.mu.Unlock()

	if ok {
		err := s.save(ctx, articleID, p)
		return s.Status(articleID), err
	}

	// Nothing queued: wait for any in-flight write of this article to finish
	lock := s.articleLock(articleID)
	lock.Lock()
	lock.Unlock()

	status := s.Status(articleID)
	if status.State == models.SaveStateFailed {
		return status, errors.New(status.Error)
	}
	return status, nil
}

// Discard drops pending content and save state of an article that no longer exists.
// It waits for an in-flight write of the article to finish.
func (s *autosaver) Discard(articleID string) {
	lock := s.articleLock(articleID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, articleID)
	delete(s.statuses, articleID)
	delete(s.written, articleID)
}

// FlushAll writes every pending article
func (s *autosaver) FlushAll(ctx context.Context) {
	s.mu.Lock()
	batch := s.pending
	s.pending = make(map[string]pendingSave)
	s.mu.Unlock()

	for articleID, p := range batch {
		if err := s.save(ctx, articleID, p); err != nil {
			s.log.Error().Err(err).Str("article_id", articleID).Msg("Final autosave failed")
		}
	}
}

// StartProcessor starts the background autosave processor
func (s *autosaver) StartProcessor(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	procCtx, done := s.ctx, s.done
	s.mu.Unlock()
	defer close(done)

	s.log.Info().Msg("Autosave processor started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-procCtx.Done():
			s.log.Info().Msg("Autosave processor stopping")
			return
		case now := <-ticker.C:
			s.processPending(procCtx)
			s.runHooks(now)
		}
	}
}

// StopProcessor stops the background processor and writes everything still pending
func (s *autosaver) StopProcessor() {
	s.mu.Lock()
	done := s.done
	if s.running {
		s.cancel()
		s.running = false
		s.done = nil
	}
	s.mu.Unlock()

	if done != nil {
		<-done
	}
	s.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	s.FlushAll(ctx)
	s.log.Info().Msg("Autosave processor stopped")
}

// processPending hands every pending article to the worker pool
func (s *autosaver) processPending(ctx context.Context) {
	s.mu.Lock()
	batch := s.pending
	s.pending = make(map[string]pendingSave)
	s.mu.Unlock()

	for articleID, p := range batch {
		// Acquire semaphore slot - blocks if all workers are busy (backpressure)
		select {
		case s.sem <- struct{}{}:
		case <-ctx.Done():
			s.requeue(articleID, p)
			continue
		}

		s.wg.Add(1)
		go func(articleID string, p pendingSave) {
			defer s.wg.Done()
			defer func() { <-s.sem }()

			defer func() {
				if r := recover(); r != nil {
					s.log.Error().
						Interface("panic", r).
						Str("article_id", articleID).
						Msg("Autosave panicked - recovered")
					s.markFailed(articleID, p.sequence, fmt.Sprintf("panic: %v", r))
				}
			}()

			// In-flight writes finish even when shutdown begins
			saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
			defer cancel()
			if err := s.save(saveCtx, articleID, p); err != nil {
				s.log.Error().Err(err).Str("article_id", articleID).Uint64("sequence", p.sequence).Msg("Autosave failed")
			}
		}(articleID, p)
	}
}

// save writes one version of an article's content. Versions older than one
// already written are skipped.
func (s *autosaver) save(ctx context.Context, articleID string, p pendingSave) error {
	lock := s.articleLock(articleID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	if s.written[articleID] >= p.sequence {
		s.mu.Unlock()
		return nil
	}
	status := s.statusLocked(articleID)
	if status.Sequence == p.sequence {
		status.State = models.SaveStateSaving
	}
	s.mu.Unlock()

	found, err := s.repo.UpdateContent(ctx, articleID, p.content)
	if err == nil && !found {
		err = ErrArticleNotFound
	}
	if err != nil {
		s.markFailed(articleID, p.sequence, err.Error())
		return fmt.Errorf("failed to save article content: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.written[articleID] = p.sequence
	status = s.statusLocked(articleID)
	if status.Sequence == p.sequence {
		now := time.Now().UTC()
		status.State = models.SaveStateSaved
		status.Error = ""
		status.SavedAt = &now
	}

	s.log.Debug().Str("article_id", articleID).Uint64("sequence", p.sequence).Int("bytes", len(p.content)).Msg("Content saved")
	return nil
}

func (s *autosaver) markFailed(articleID string, sequence uint64, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := s.statusLocked(articleID)
	if status.Sequence == sequence {
		status.State = models.SaveStateFailed
		status.Error = msg
	}
}

// requeue puts p back unless a newer version was enqueued meanwhile
func (s *autosaver) requeue(articleID string, p pendingSave) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.pending[articleID]; ok && current.sequence > p.sequence {
		return
	}
	s.pending[articleID] = p
}

func (s *autosaver) runHooks(now time.Time) {
	s.mu.Lock()
	hooks := append([]func(time.Time){}, s.hooks...)
	s.mu.Unlock()
	for _, hook := range hooks {
		hook(now)
	}
}

func (s *autosaver) articleLock(articleID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[articleID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[articleID] = lock
	}
	return lock
}

func (s *autosaver) statusLocked(articleID string) *models.SaveStatus {
	status, ok := s.statuses[articleID]
	if !ok {
		status = &models.SaveStatus{State: models.SaveStateIdle}
		s.statuses[articleID] = status
	}
	return status
}
