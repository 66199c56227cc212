package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/news-composer/internal/blocks"
	"github.com/news-composer/internal/composition"
	"github.com/news-composer/internal/config"
	"github.com/news-composer/internal/dragreorder"
	"github.com/news-composer/internal/models"
	"github.com/news-composer/internal/render"
	"github.com/news-composer/internal/repository"
)

const subscriberBuffer = 16

// session is one author's editing of one article. It owns the article's
// composition for its lifetime.
type session struct {
	id        string
	articleID string
	store     *composition.Store
	drag      *dragreorder.Controller
	preview   *render.Renderer
	openedAt  time.Time

	mu          sync.Mutex
	lastSeen    time.Time
	subscribers map[int]chan models.PreviewEvent
	nextSub     int
	closed      bool
}

// editorService is the concrete implementation of EditorService
type editorService struct {
	repo      repository.ArticleRepository
	autosaver Autosaver
	registry  *blocks.Registry
	cfg       *config.Config
	log       zerolog.Logger
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

// newEditorService creates a new EditorService
func newEditorService(repo repository.ArticleRepository, autosaver Autosaver, registry *blocks.Registry, cfg *config.Config, log zerolog.Logger) *editorService {
	return &editorService{
		repo:      repo,
		autosaver: autosaver,
		registry:  registry,
		cfg:       cfg,
		log:       log.With().Str("service", "editor").Logger(),
		now:       time.Now,
		sessions:  make(map[string]*session),
	}
}

// Open loads an article's content and starts a session on it
func (s *editorService) Open(ctx context.Context, articleID string) (*models.SessionView, error) {
	content, found, err := s.repo.GetContent(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	if !found {
		return nil, ErrArticleNotFound
	}

	initial, report := composition.DeserializeWithReport(content)
	if report.Legacy {
		s.log.Info().Str("article_id", articleID).Msg("Legacy content opened as a text block")
	}

	now := s.now()
	sess := &session{
		id:          uuid.NewString(),
		articleID:   articleID,
		openedAt:    now,
		lastSeen:    now,
		subscribers: make(map[int]chan models.PreviewEvent),
	}
	sess.preview = render.New(s.registry, blocks.ModePreview,
		render.WithCarouselInterval(s.cfg.Editor.CarouselInterval),
		render.WithRawHTML(s.cfg.Render.AllowRawHTML),
		render.WithAutoAdvance(func(string, int) { s.publish(sess, "tick") }),
	)
	sess.store = composition.NewStore(s.registry, initial,
		composition.WithOnChange(func(c composition.Composition) { s.changed(sess, c) }),
	)
	sess.drag = dragreorder.New(sess.store)

	// Start rotators for carousels already in the article
	sess.preview.Render(initial)

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.log.Info().
		Str("session_id", sess.id).
		Str("article_id", articleID).
		Int("blocks", len(initial)).
		Msg("Editing session opened")

	return s.view(sess), nil
}

// Get returns the current state of a session
func (s *editorService) Get(sessionID string) (*models.SessionView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

// AddBlock appends a block with the registry default data for t
func (s *editorService) AddBlock(sessionID string, t blocks.Type) (blocks.Block, bool, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return blocks.Block{}, false, err
	}
	b, ok := sess.store.Add(t)
	return b, ok, nil
}

// UpdateBlock merges data into a block
func (s *editorService) UpdateBlock(sessionID, blockID string, data blocks.Data) (bool, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return false, err
	}
	return sess.store.Update(blockID, data), nil
}

// RemoveBlock deletes a block
func (s *editorService) RemoveBlock(sessionID, blockID string) (bool, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return false, err
	}
	return sess.store.Remove(blockID), nil
}

// DuplicateBlock inserts a copy of a block right after it
func (s *editorService) DuplicateBlock(sessionID, blockID string) (blocks.Block, bool, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return blocks.Block{}, false, err
	}
	b, ok := sess.store.Duplicate(blockID)
	return b, ok, nil
}

// Reorder moves the block at from to to
func (s *editorService) Reorder(sessionID string, from, to int) (bool, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return false, err
	}
	return sess.store.Reorder(from, to), nil
}

// Drag feeds one pointer gesture event to the session's drag controller. The bool
// result reports whether the event moved a block.
func (s *editorService) Drag(sessionID string, req *models.DragEventRequest) (models.DragView, bool, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return models.DragView{}, false, err
	}

	moved := false
	switch req.Event {
	case models.DragStart:
		sess.drag.Start(req.BlockID)
	case models.DragOver:
		sess.drag.Over(req.BlockID)
	case models.DragEnd:
		moved = sess.drag.End()
	case models.DragCancel:
		sess.drag.Cancel()
	}
	return dragView(sess.drag), moved, nil
}

// Key moves a focused block one position per press
func (s *editorService) Key(sessionID, blockID, key string) (bool, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return false, err
	}
	return sess.drag.Key(blockID, key), nil
}

// Preview renders the session's composition
func (s *editorService) Preview(sessionID string) ([]render.Output, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.preview.Render(sess.store.Composition()), nil
}

// Forms renders the editor form of every block. Blocks of unknown type get a
// notice naming their type so they stay visible and removable.
func (s *editorService) Forms(sessionID string) ([]models.BlockForm, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	c := sess.store.Composition()
	forms := make([]models.BlockForm, 0, len(c))
	for _, b := range c {
		form := models.BlockForm{
			BlockID:    b.ID,
			Type:       string(b.Type),
			Supported:  s.registry.Has(b.Type),
			IssueCount: len(s.registry.Validate(b)),
		}
		if form.Supported {
			form.HTML = s.registry.Editor(b.Type)(b)
			_, form.Renderable = s.registry.View(b.Type)(b, blocks.RenderContext{Mode: blocks.ModePreview})
		} else {
			form.HTML = blocks.UnsupportedNotice(b)
		}
		forms = append(forms, form)
	}
	return forms, nil
}

// Save writes the session's current composition now and reports the outcome
func (s *editorService) Save(ctx context.Context, sessionID string) (models.SaveStatus, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return models.SaveStatus{}, err
	}
	content, err := composition.Serialize(sess.store.Composition())
	if err != nil {
		return s.autosaver.Status(sess.articleID), err
	}
	s.autosaver.Enqueue(sess.articleID, content)
	return s.autosaver.Flush(ctx, sess.articleID)
}

// Close flushes pending content, stops the session's carousels and ends it
func (s *editorService) Close(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	return s.shutdown(ctx, sess)
}

// ReplaceArticle installs c in every open session of an article after its content
// was overwritten outside the editor, so those sessions keep editing the new content.
// It returns the number of sessions updated.
func (s *editorService) ReplaceArticle(articleID string, c composition.Composition) int {
	sessions := s.sessionsFor(articleID, false)
	for _, sess := range sessions {
		sess.store.Replace(c)
		sess.drag.Cancel()
	}
	if len(sessions) > 0 {
		s.log.Info().Str("article_id", articleID).Int("sessions", len(sessions)).Msg("Open sessions reloaded with replaced content")
	}
	return len(sessions)
}

// CloseArticle ends every session of a deleted article without saving and drops
// its pending autosave. It returns the number of sessions closed.
func (s *editorService) CloseArticle(articleID string) int {
	sessions := s.sessionsFor(articleID, true)
	for _, sess := range sessions {
		s.stop(sess)
	}
	s.autosaver.Discard(articleID)
	if len(sessions) > 0 {
		s.log.Info().Str("article_id", articleID).Int("sessions", len(sessions)).Msg("Sessions of deleted article closed")
	}
	return len(sessions)
}

// Subscribe streams preview events of a session until the returned cancel func
// is called or the session closes.
func (s *editorService) Subscribe(sessionID string) (<-chan models.PreviewEvent, func(), error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan models.PreviewEvent, subscriberBuffer)
	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return nil, nil, ErrSessionNotFound
	}
	key := sess.nextSub
	sess.nextSub++
	sess.subscribers[key] = ch
	sess.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			sess.mu.Lock()
			defer sess.mu.Unlock()
			if sub, ok := sess.subscribers[key]; ok {
				delete(sess.subscribers, key)
				close(sub)
			}
		})
	}
	return ch, cancel, nil
}

// ReapIdle closes sessions not used within the configured TTL
func (s *editorService) ReapIdle(now time.Time) int {
	ttl := s.cfg.Editor.SessionTTL
	if ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	var idle []*session
	for id, sess := range s.sessions {
		sess.mu.Lock()
		expired := now.Sub(sess.lastSeen) > ttl
		sess.mu.Unlock()
		if expired {
			idle = append(idle, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range idle {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		if err := s.shutdown(ctx, sess); err != nil {
			s.log.Warn().Err(err).Str("session_id", sess.id).Msg("Idle session closed with unsaved content")
		}
		cancel()
		s.log.Info().Str("session_id", sess.id).Msg("Idle editing session reaped")
	}
	return len(idle)
}

// CloseAll ends every session
func (s *editorService) CloseAll(ctx context.Context) {
	s.mu.Lock()
	all := make([]*session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		all = append(all, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, sess := range all {
		if err := s.shutdown(ctx, sess); err != nil {
			s.log.Error().Err(err).Str("session_id", sess.id).Msg("Failed to save session on shutdown")
		}
	}
}

// Count returns the number of open sessions
func (s *editorService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// sessionsFor returns the open sessions of an article, removing them when remove is set
func (s *editorService) sessionsFor(articleID string, remove bool) []*session {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*session
	for id, sess := range s.sessions {
		if sess.articleID != articleID {
			continue
		}
		out = append(out, sess)
		if remove {
			delete(s.sessions, id)
		}
	}
	return out
}

func (s *editorService) session(sessionID string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.mu.Lock()
	sess.lastSeen = s.now()
	sess.mu.Unlock()
	return sess, nil
}

// changed runs after every store operation: the new composition is queued for
// saving, carousel rotators follow it and subscribers get a preview. Edits never
// wait for the save.
func (s *editorService) changed(sess *session, c composition.Composition) {
	content, err := composition.Serialize(c)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", sess.id).Msg("Failed to serialize composition")
	} else {
		s.autosaver.Enqueue(sess.articleID, content)
	}
	sess.preview.Sync(c)
	s.publish(sess, "preview")
}

func (s *editorService) publish(sess *session, eventType string) {
	sess.mu.Lock()
	if sess.closed || len(sess.subscribers) == 0 {
		sess.mu.Unlock()
		return
	}
	sess.mu.Unlock()

	event := models.PreviewEvent{
		Type:      eventType,
		SessionID: sess.id,
		Blocks:    sess.preview.Render(sess.store.Composition()),
		Save:      s.autosaver.Status(sess.articleID),
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return
	}
	for _, ch := range sess.subscribers {
		select {
		case ch <- event:
		default:
			// Slow subscriber; it will catch up on the next event
		}
	}
}

func (s *editorService) shutdown(ctx context.Context, sess *session) error {
	if !s.stop(sess) {
		return nil
	}
	_, err := s.autosaver.Flush(ctx, sess.articleID)
	s.log.Info().Str("session_id", sess.id).Str("article_id", sess.articleID).Msg("Editing session closed")
	return err
}

// stop ends subscriptions and carousels of a session. It reports false when the
// session was already stopped.
func (s *editorService) stop(sess *session) bool {
	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return false
	}
	sess.closed = true
	for key, ch := range sess.subscribers {
		delete(sess.subscribers, key)
		close(ch)
	}
	sess.mu.Unlock()

	sess.preview.Close()
	sess.drag.Cancel()
	return true
}

func (s *editorService) view(sess *session) *models.SessionView {
	return &models.SessionView{
		ID:        sess.id,
		ArticleID: sess.articleID,
		Content:   sess.store.Composition(),
		Drag:      dragView(sess.drag),
		Save:      s.autosaver.Status(sess.articleID),
		OpenedAt:  sess.openedAt,
	}
}

func dragView(c *dragreorder.Controller) models.DragView {
	return models.DragView{
		State:  c.State().String(),
		Source: c.Source(),
		Target: c.Target(),
	}
}
