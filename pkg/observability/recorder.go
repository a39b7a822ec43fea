package observability

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrStackViolation is returned when a subsegment handle is closed out of
// LIFO order. It signals a programming error in the caller, never an
// expected runtime condition.
var ErrStackViolation = errors.New("subsegment closed out of order")

type contextKey string

const storeContextKey contextKey = "segment_store"

// segmentStore holds one request's root segment and its stack of open
// subsegments. It is request-local; the mutex guards against handlers
// that fan out instrumented work to goroutines.
type segmentStore struct {
	mu   sync.Mutex
	root *Segment
	open []*Segment
}

func (st *segmentStore) top() *Segment {
	if len(st.open) == 0 {
		return st.root
	}
	return st.open[len(st.open)-1]
}

// Recorder manages trace segments and hands closed root segments to the
// collector. When disabled, every operation is a no-op returning inert
// handles, so callers never special-case the toggle.
type Recorder struct {
	enabled   bool
	strict    bool // stack violations are surfaced instead of corrected
	collector Collector
	logger    *zap.Logger
}

// NewRecorder creates a recorder exporting to the given collector.
// In strict mode an out-of-order close leaves the stack untouched and
// surfaces the error; otherwise the recorder logs and closes the actual
// top so the structure stays balanced.
func NewRecorder(collector Collector, logger *zap.Logger, enabled, strict bool) *Recorder {
	if collector == nil {
		collector = NopCollector{}
	}
	return &Recorder{
		enabled:   enabled,
		strict:    strict,
		collector: collector,
		logger:    logger,
	}
}

// Enabled reports whether trace recording is active
func (r *Recorder) Enabled() bool {
	return r.enabled
}

// BeginSegment opens the root segment for one request and binds the
// request-local segment store into the returned context.
func (r *Recorder) BeginSegment(ctx context.Context, name string) (context.Context, *SegmentHandle) {
	if !r.enabled {
		return ctx, &SegmentHandle{}
	}

	seg := newSegment(name)
	seg.TraceID = newTraceID()
	store := &segmentStore{root: seg}
	ctx = context.WithValue(ctx, storeContextKey, store)

	return ctx, &SegmentHandle{rec: r, store: store, seg: seg}
}

// BeginSubsegment opens a subsegment parented to the current top of the
// request's stack (the root segment if the stack is empty).
func (r *Recorder) BeginSubsegment(ctx context.Context, name string) *SubsegmentHandle {
	if !r.enabled {
		return &SubsegmentHandle{}
	}

	store := storeFromContext(ctx)
	if store == nil {
		r.logger.Warn("subsegment opened outside a request segment", zap.String("name", name))
		return &SubsegmentHandle{}
	}

	sub := newSegment(name)

	store.mu.Lock()
	store.top().addSubsegment(sub)
	store.open = append(store.open, sub)
	store.mu.Unlock()

	return &SubsegmentHandle{rec: r, store: store, seg: sub}
}

// Capture runs fn inside a subsegment with a guaranteed close on every
// exit path, including panics, so abrupt termination still balances the
// stack. An error from fn is recorded on the subsegment and returned.
func (r *Recorder) Capture(ctx context.Context, name string, fn func(context.Context) error) error {
	sub := r.BeginSubsegment(ctx, name)
	defer func() {
		if err := sub.Close(); err != nil {
			r.logger.Warn("failed to close subsegment", zap.String("name", name), zap.Error(err))
		}
	}()

	err := fn(ctx)
	if err != nil {
		sub.RecordException(err.Error())
	}
	return err
}

// Current returns the segment that annotation and metadata calls should
// attach to: the top open subsegment, or the root if none are open.
// Returns nil when tracing is disabled or outside a request.
func (r *Recorder) Current(ctx context.Context) *Segment {
	if !r.enabled {
		return nil
	}
	store := storeFromContext(ctx)
	if store == nil {
		return nil
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.top()
}

// RootSegment returns the request's root segment, or nil outside a request
func (r *Recorder) RootSegment(ctx context.Context) *Segment {
	if !r.enabled {
		return nil
	}
	store := storeFromContext(ctx)
	if store == nil {
		return nil
	}
	return store.root
}

func storeFromContext(ctx context.Context) *segmentStore {
	store, _ := ctx.Value(storeContextKey).(*segmentStore)
	return store
}

// SegmentHandle closes exactly the root segment it was returned for
type SegmentHandle struct {
	rec   *Recorder
	store *segmentStore
	seg   *Segment
	once  sync.Once
}

// Segment returns the root segment, nil for an inert handle
func (h *SegmentHandle) Segment() *Segment {
	return h.seg
}

// Close ends the root segment and hands it to the collector. Any
// subsegments still open are closed first, oldest last, so the exported
// tree is always balanced. Safe to call on an inert handle.
func (h *SegmentHandle) Close() {
	if h.rec == nil {
		return
	}
	h.once.Do(func() {
		now := time.Now()

		h.store.mu.Lock()
		for i := len(h.store.open) - 1; i >= 0; i-- {
			leaked := h.store.open[i]
			leaked.close(now)
			h.rec.logger.Warn("subsegment left open at segment close", zap.String("name", leaked.Name))
		}
		h.store.open = nil
		h.store.mu.Unlock()

		h.seg.close(now)
		h.rec.collector.Emit(h.seg)
	})
}

// SubsegmentHandle closes exactly the subsegment it was returned for
type SubsegmentHandle struct {
	rec   *Recorder
	store *segmentStore
	seg   *Segment
}

// Segment returns the subsegment, nil for an inert handle
func (h *SubsegmentHandle) Segment() *Segment {
	return h.seg
}

// RecordException attaches a failure to the subsegment without closing it
func (h *SubsegmentHandle) RecordException(message string) {
	if h.seg == nil {
		return
	}
	h.seg.RecordError(message)
}

// Close pops the subsegment off the request's stack. The handle must be
// the current top; closing out of order returns ErrStackViolation. In
// non-strict mode the recorder corrects by closing the actual top, so the
// stack structure is never silently corrupted either way.
func (h *SubsegmentHandle) Close() error {
	if h.rec == nil {
		return nil
	}

	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	n := len(h.store.open)
	if n == 0 {
		return ErrStackViolation
	}
	if h.store.open[n-1] != h.seg {
		if h.rec.strict {
			return ErrStackViolation
		}
		top := h.store.open[n-1]
		top.close(time.Now())
		h.store.open = h.store.open[:n-1]
		h.rec.logger.Error("subsegment closed out of order, closing current top instead",
			zap.String("requested", h.seg.Name),
			zap.String("closed", top.Name),
		)
		return ErrStackViolation
	}

	h.seg.close(time.Now())
	h.store.open = h.store.open[:n-1]
	return nil
}
