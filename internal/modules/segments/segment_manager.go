package segments

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"routeboard/internal/models"
)

// Backend is the routing capability the manager calls out to. CreateRouteSegment
// is the only blocking operation; the draw/update/remove calls announce visual
// state to whatever is rendering segments (a WebSocket hub in production).
type Backend interface {
	CreateRouteSegment(ctx context.Context, from, to models.SegmentStop) (*models.RouteData, error)
	DrawRouteSegment(seg models.RouteSegment) (handle string, err error)
	UpdateRouteSegment(handle string, seg models.RouteSegment) error
	RemoveRouteSegment(handle string) error
}

// Manager owns the set of route segments and the calculation queue. Queued
// segment ids are processed one at a time in enqueue order, so at most one
// backend call is in flight per manager; the routing providers this talks to
// are rate limited by the caller's contract.
type Manager struct {
	mu      sync.Mutex
	backend Backend

	segments map[string]*models.RouteSegment
	handles  map[string]string // segment id -> drawn visual handle

	queue    []string
	queued   map[string]struct{}
	draining bool
	drained  sync.WaitGroup

	// originalStyles holds the pre-highlight style per segment. Presence of
	// a key is the "highlighted" state; Highlight never overwrites an
	// existing snapshot, so paired highlight/unhighlight calls always
	// restore the true original.
	originalStyles map[string]models.SegmentStyle

	callTimeout time.Duration
	now         func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithCallTimeout bounds each routing backend call. Zero means no timeout,
// which lets a hung call stall the queue indefinitely.
func WithCallTimeout(d time.Duration) Option {
	return func(m *Manager) { m.callTimeout = d }
}

// NewManager creates a segment manager on top of the given backend.
func NewManager(backend Backend, opts ...Option) *Manager {
	m := &Manager{
		backend:        backend,
		segments:       make(map[string]*models.RouteSegment),
		handles:        make(map[string]string),
		queued:         make(map[string]struct{}),
		originalStyles: make(map[string]models.SegmentStyle),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Upsert creates the segment for the ordered stop pair or refreshes the
// stop payloads on the existing one. A segment that has never been
// calculated and is not already queued or calculating is enqueued
// implicitly.
func (m *Manager) Upsert(from, to models.SegmentStop) models.RouteSegment {
	id := models.SegmentID(from.ID, to.ID)

	m.mu.Lock()
	seg, ok := m.segments[id]
	if !ok {
		seg = &models.RouteSegment{
			ID:        id,
			From:      from,
			To:        to,
			Style:     models.DefaultSegmentStyle(),
			Status:    models.SegmentIdle,
			CreatedAt: m.now(),
			UpdatedAt: m.now(),
		}
		m.segments[id] = seg
	} else {
		seg.From = from
		seg.To = to
		seg.UpdatedAt = m.now()
	}

	_, isQueued := m.queued[id]
	needsCalc := seg.Status == models.SegmentIdle && !isQueued
	snapshot := *seg
	m.mu.Unlock()

	if needsCalc {
		return m.Recalculate(id)
	}
	return snapshot
}

// Recalculate enqueues the segment and starts a drain when none is running.
// Enqueueing an id that is already waiting is a no-op, which keeps repeated
// requests for the same pair down to a single backend call. Backend
// failures are never returned here; they land on the segment as
// status=failed with the error message.
func (m *Manager) Recalculate(id string) models.RouteSegment {
	m.mu.Lock()
	seg, ok := m.segments[id]
	if !ok {
		m.mu.Unlock()
		return models.RouteSegment{}
	}

	if _, isQueued := m.queued[id]; !isQueued {
		m.queue = append(m.queue, id)
		m.queued[id] = struct{}{}
	}

	start := !m.draining
	if start {
		m.draining = true
		m.drained.Add(1)
	}
	snapshot := *seg
	m.mu.Unlock()

	if start {
		go m.drain()
	}
	return snapshot
}

// drain processes queued ids one at a time until the queue is empty. There
// is at most one drain loop per manager; Recalculate only starts one when
// the draining flag is clear.
func (m *Manager) drain() {
	defer m.drained.Done()
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.draining = false
			m.mu.Unlock()
			return
		}
		id := m.queue[0]
		m.queue = m.queue[1:]
		if _, still := m.queued[id]; !still {
			// Excised by Remove while waiting. Skip without touching the backend.
			m.mu.Unlock()
			continue
		}
		delete(m.queued, id)

		seg, ok := m.segments[id]
		if !ok {
			m.mu.Unlock()
			continue
		}
		seg.Status = models.SegmentCalculating
		seg.UpdatedAt = m.now()
		from, to := seg.From, seg.To
		m.mu.Unlock()

		data, err := m.callBackend(from, to)

		m.mu.Lock()
		seg, ok = m.segments[id]
		if !ok {
			// Removed while the call was in flight. The late result is
			// discarded; nothing observes it.
			m.mu.Unlock()
			continue
		}
		if err != nil {
			seg.Status = models.SegmentFailed
			seg.Error = err.Error()
			seg.Style = models.FailedSegmentStyle()
			if _, highlighted := m.originalStyles[id]; highlighted {
				// The failed style wins over a highlight; a later
				// Unhighlight must not resurface the pre-failure style.
				m.originalStyles[id] = models.FailedSegmentStyle()
			}
			seg.UpdatedAt = m.now()
			snapshot := *seg
			oldHandle := m.handles[id]
			m.mu.Unlock()
			m.redraw(id, oldHandle, snapshot)
			continue
		}

		seg.Polyline = data.Polyline
		seg.Geometry = data.Geometry
		if len(seg.Geometry) == 0 {
			// No path geometry from the provider: fall back to a straight line.
			seg.Geometry = []models.GeoPoint{seg.From.Location, seg.To.Location}
		}
		seg.DistanceMeters = data.DistanceMeters
		seg.DurationSeconds = data.DurationSeconds
		seg.Bounds = data.Bounds
		seg.Error = ""
		seg.Status = models.SegmentCalculated
		// A successful calculation sheds any earlier failed style. When the
		// segment is highlighted the display keeps the highlight and the
		// restore snapshot is rebased instead.
		if _, highlighted := m.originalStyles[id]; highlighted {
			m.originalStyles[id] = models.DefaultSegmentStyle()
		} else {
			seg.Style = models.DefaultSegmentStyle()
		}
		seg.UpdatedAt = m.now()
		snapshot := *seg
		oldHandle := m.handles[id]
		m.mu.Unlock()

		m.redraw(id, oldHandle, snapshot)
	}
}

func (m *Manager) callBackend(from, to models.SegmentStop) (*models.RouteData, error) {
	ctx := context.Background()
	if m.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.callTimeout)
		defer cancel()
	}
	return m.backend.CreateRouteSegment(ctx, from, to)
}

// redraw discards the previously drawn visual, if any, and draws the
// segment's current state.
func (m *Manager) redraw(id, oldHandle string, seg models.RouteSegment) {
	if oldHandle != "" {
		if err := m.backend.RemoveRouteSegment(oldHandle); err != nil {
			log.Printf("segments: remove visual %s: %v", id, err)
		}
	}
	handle, err := m.backend.DrawRouteSegment(seg)
	if err != nil {
		log.Printf("segments: draw visual %s: %v", id, err)
		handle = ""
	}

	m.mu.Lock()
	if _, ok := m.segments[id]; ok {
		if handle != "" {
			m.handles[id] = handle
		} else {
			delete(m.handles, id)
		}
	} else if handle != "" {
		// Segment vanished while drawing; clean the orphaned visual up.
		m.mu.Unlock()
		_ = m.backend.RemoveRouteSegment(handle)
		return
	}
	m.mu.Unlock()
}

// Remove deletes the segment, removes its drawn visual and excises any
// queued-but-unstarted work for it. An in-flight backend call is not
// aborted; its result is discarded when it lands.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	handle := m.handles[id]
	delete(m.handles, id)
	delete(m.segments, id)
	delete(m.queued, id)
	delete(m.originalStyles, id)
	m.mu.Unlock()

	if handle != "" {
		if err := m.backend.RemoveRouteSegment(handle); err != nil {
			log.Printf("segments: remove visual %s: %v", id, err)
		}
	}
}

// IsCalculating reports whether the segment is being calculated or is still
// waiting in the queue.
func (m *Manager) IsCalculating(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, isQueued := m.queued[id]; isQueued {
		return true
	}
	seg, ok := m.segments[id]
	return ok && seg.Status == models.SegmentCalculating
}

// Highlight snapshots the segment's current style, applies the fixed
// highlight style and refreshes the visual. Highlighting an already
// highlighted segment keeps the first snapshot, so the true original style
// survives unpaired calls.
func (m *Manager) Highlight(id string) {
	m.mu.Lock()
	seg, ok := m.segments[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	if _, already := m.originalStyles[id]; !already {
		m.originalStyles[id] = seg.Style
	}
	seg.Style = models.HighlightSegmentStyle()
	seg.UpdatedAt = m.now()
	snapshot := *seg
	handle := m.handles[id]
	m.mu.Unlock()

	m.updateVisual(id, handle, snapshot)
}

// Unhighlight restores the style captured by Highlight and clears the
// snapshot. Without a prior Highlight it is a no-op.
func (m *Manager) Unhighlight(id string) {
	m.mu.Lock()
	seg, ok := m.segments[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	original, highlighted := m.originalStyles[id]
	if !highlighted {
		m.mu.Unlock()
		return
	}
	seg.Style = original
	seg.UpdatedAt = m.now()
	delete(m.originalStyles, id)
	snapshot := *seg
	handle := m.handles[id]
	m.mu.Unlock()

	m.updateVisual(id, handle, snapshot)
}

func (m *Manager) updateVisual(id, handle string, seg models.RouteSegment) {
	if handle == "" {
		return
	}
	if err := m.backend.UpdateRouteSegment(handle, seg); err != nil {
		log.Printf("segments: update visual %s: %v", id, err)
	}
}

// Get returns a snapshot of the segment, or false when it does not exist.
func (m *Manager) Get(id string) (models.RouteSegment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seg, ok := m.segments[id]
	if !ok {
		return models.RouteSegment{}, false
	}
	return *seg, true
}

// ListAll returns snapshots of every tracked segment, sorted by id.
func (m *Manager) ListAll() []models.RouteSegment {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.RouteSegment, 0, len(m.segments))
	for _, seg := range m.segments {
		out = append(out, *seg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListByStatus returns snapshots of every segment in the given state,
// sorted by id.
func (m *Manager) ListByStatus(status models.SegmentStatus) []models.RouteSegment {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.RouteSegment
	for _, seg := range m.segments {
		if seg.Status == status {
			out = append(out, *seg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Wait blocks until the current drain loop, if any, has emptied the queue.
// Used by tests and graceful shutdown.
func (m *Manager) Wait() {
	m.drained.Wait()
}
