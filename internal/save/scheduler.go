package save

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ContentWriter persists a document body.
type ContentWriter interface {
	UpdateContent(ctx context.Context, documentID uint, content string, editorID uint) error
}

type pendingSave struct {
	timer    *time.Timer
	content  string
	editorID uint
}

// Scheduler coalesces rapid edits into a single durable write per document.
// Each Schedule call cancels the previous pending timer for the document and
// starts a fresh one, so a document is written at most once per debounce
// window while edits keep arriving, and only the newest content survives.
//
// A write that fails is logged and dropped: connected clients already saw
// the broadcast, so room state stays authoritative regardless.
type Scheduler struct {
	writer   ContentWriter
	debounce time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[uint]*pendingSave
}

func NewScheduler(writer ContentWriter, debounce time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		writer:   writer,
		debounce: debounce,
		logger:   logger,
		pending:  make(map[uint]*pendingSave),
	}
}

// Schedule queues content for persistence after the debounce window.
func (s *Scheduler) Schedule(documentID uint, content string, editorID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pending[documentID]; ok {
		p.timer.Stop()
		p.content = content
		p.editorID = editorID
		p.timer.Reset(s.debounce)
		return
	}

	p := &pendingSave{content: content, editorID: editorID}
	p.timer = time.AfterFunc(s.debounce, func() { s.fire(documentID) })
	s.pending[documentID] = p
}

func (s *Scheduler) fire(documentID uint) {
	s.mu.Lock()
	p, ok := s.pending[documentID]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.pending, documentID)
	content, editorID := p.content, p.editorID
	s.mu.Unlock()

	s.write(documentID, content, editorID)
}

func (s *Scheduler) write(documentID uint, content string, editorID uint) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.writer.UpdateContent(ctx, documentID, content, editorID); err != nil {
		s.logger.Error("failed to persist document",
			zap.Uint("document_id", documentID),
			zap.Error(err))
		return
	}
	s.logger.Info("document saved", zap.Uint("document_id", documentID))
}

// PendingCount reports how many documents have an outstanding timer.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush writes every pending document immediately and cancels its timer.
// Called on shutdown so the debounce window does not eat the last edit.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	drained := make(map[uint]*pendingSave, len(s.pending))
	for id, p := range s.pending {
		p.timer.Stop()
		drained[id] = p
	}
	s.pending = make(map[uint]*pendingSave)
	s.mu.Unlock()

	for id, p := range drained {
		s.write(id, p.content, p.editorID)
	}
}
