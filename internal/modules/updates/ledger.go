package updates

import (
	"context"
	"fmt"
	"sync"
	"time"

	"routeboard/internal/models"
)

// Ledger is the durable record of in-flight optimistic mutations. It lets
// the UI apply a change immediately, survive a reload while the network
// call is still outstanding, and learn afterwards whether the change stuck.
//
// The ledger holds no domain errors: unknown keys are no-ops and every
// operation is total over the log. Errors surfacing from here are
// persistence failures only. Marking an entry failed does not revert any
// optimistic state applied elsewhere; reconciliation is the caller's job,
// typically by refetching canonical data.
//
// All operations are read-modify-write against the whole persisted
// collection; the ledger's own mutex serializes them within this process.
type Ledger struct {
	mu    sync.Mutex
	store StoreInterface
	now   func() time.Time
}

// NewLedger creates a ledger over the given persistence surface.
func NewLedger(store StoreInterface) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// RecordAssignment appends a pending route-assignment entry, replacing any
// existing entry for the same (routeID, orderID) pair.
func (l *Ledger) RecordAssignment(ctx context.Context, routeID, orderID string, action models.AssignmentAction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.store.LoadAssignments(ctx)
	if err != nil {
		return fmt.Errorf("ledger.RecordAssignment: %w", err)
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.RouteID == routeID && e.OrderID == orderID {
			continue
		}
		kept = append(kept, e)
	}
	kept = append(kept, models.AssignmentUpdate{
		RouteID:   routeID,
		OrderID:   orderID,
		Action:    action,
		Timestamp: l.now(),
		Status:    models.UpdatePending,
	})

	if err := l.store.SaveAssignments(ctx, kept); err != nil {
		return fmt.Errorf("ledger.RecordAssignment: %w", err)
	}
	return nil
}

// RecordOrderField appends a pending order-field entry, replacing any
// existing entry for the same order id.
func (l *Ledger) RecordOrderField(ctx context.Context, orderID string, fields map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.store.LoadOrderFields(ctx)
	if err != nil {
		return fmt.Errorf("ledger.RecordOrderField: %w", err)
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.OrderID == orderID {
			continue
		}
		kept = append(kept, e)
	}
	kept = append(kept, models.OrderFieldUpdate{
		OrderID:   orderID,
		Fields:    fields,
		Timestamp: l.now(),
		Status:    models.UpdatePending,
	})

	if err := l.store.SaveOrderFields(ctx, kept); err != nil {
		return fmt.Errorf("ledger.RecordOrderField: %w", err)
	}
	return nil
}

// MarkAssignmentCompleted flips the matching entry to completed. Unknown
// keys are a no-op.
func (l *Ledger) MarkAssignmentCompleted(ctx context.Context, routeID, orderID string) error {
	return l.markAssignment(ctx, routeID, orderID, models.UpdateCompleted)
}

// MarkAssignmentFailed flips the matching entry to failed. The optimistic
// state recorded elsewhere is left dangling on purpose; a failed entry
// surfaces as "unconfirmed" rather than silently disappearing.
func (l *Ledger) MarkAssignmentFailed(ctx context.Context, routeID, orderID string) error {
	return l.markAssignment(ctx, routeID, orderID, models.UpdateFailed)
}

func (l *Ledger) markAssignment(ctx context.Context, routeID, orderID string, status models.UpdateStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.store.LoadAssignments(ctx)
	if err != nil {
		return fmt.Errorf("ledger.markAssignment: %w", err)
	}

	changed := false
	for i := range entries {
		if entries[i].RouteID == routeID && entries[i].OrderID == orderID {
			entries[i].Status = status
			changed = true
		}
	}
	if !changed {
		return nil
	}

	if err := l.store.SaveAssignments(ctx, entries); err != nil {
		return fmt.Errorf("ledger.markAssignment: %w", err)
	}
	return nil
}

// MarkOrderFieldCompleted flips the matching entry to completed. Unknown
// keys are a no-op.
func (l *Ledger) MarkOrderFieldCompleted(ctx context.Context, orderID string) error {
	return l.markOrderField(ctx, orderID, models.UpdateCompleted)
}

// MarkOrderFieldFailed flips the matching entry to failed.
func (l *Ledger) MarkOrderFieldFailed(ctx context.Context, orderID string) error {
	return l.markOrderField(ctx, orderID, models.UpdateFailed)
}

func (l *Ledger) markOrderField(ctx context.Context, orderID string, status models.UpdateStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.store.LoadOrderFields(ctx)
	if err != nil {
		return fmt.Errorf("ledger.markOrderField: %w", err)
	}

	changed := false
	for i := range entries {
		if entries[i].OrderID == orderID {
			entries[i].Status = status
			changed = true
		}
	}
	if !changed {
		return nil
	}

	if err := l.store.SaveOrderFields(ctx, entries); err != nil {
		return fmt.Errorf("ledger.markOrderField: %w", err)
	}
	return nil
}

// ListPending returns every unconfirmed entry from both collections, for
// read paths that overlay in-flight intent onto freshly fetched canonical
// data.
func (l *Ledger) ListPending(ctx context.Context) (*models.PendingUpdates, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	assignments, err := l.store.LoadAssignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger.ListPending: %w", err)
	}
	orderFields, err := l.store.LoadOrderFields(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger.ListPending: %w", err)
	}

	out := &models.PendingUpdates{
		Assignments: []models.AssignmentUpdate{},
		OrderFields: []models.OrderFieldUpdate{},
	}
	// Failed entries stay visible as unconfirmed: nothing rolls the
	// optimistic state back, so hiding them would misreport it as settled.
	for _, e := range assignments {
		if e.Status != models.UpdateCompleted {
			out.Assignments = append(out.Assignments, e)
		}
	}
	for _, e := range orderFields {
		if e.Status != models.UpdateCompleted {
			out.OrderFields = append(out.OrderFields, e)
		}
	}
	return out, nil
}

// PurgeSettled drops every entry whose status is no longer pending. Meant
// for periodic cleanup; nothing invokes it automatically.
func (l *Ledger) PurgeSettled(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	assignments, err := l.store.LoadAssignments(ctx)
	if err != nil {
		return fmt.Errorf("ledger.PurgeSettled: %w", err)
	}
	keptA := assignments[:0]
	for _, e := range assignments {
		if e.Status == models.UpdatePending {
			keptA = append(keptA, e)
		}
	}
	if err := l.store.SaveAssignments(ctx, keptA); err != nil {
		return fmt.Errorf("ledger.PurgeSettled: %w", err)
	}

	orderFields, err := l.store.LoadOrderFields(ctx)
	if err != nil {
		return fmt.Errorf("ledger.PurgeSettled: %w", err)
	}
	keptF := orderFields[:0]
	for _, e := range orderFields {
		if e.Status == models.UpdatePending {
			keptF = append(keptF, e)
		}
	}
	if err := l.store.SaveOrderFields(ctx, keptF); err != nil {
		return fmt.Errorf("ledger.PurgeSettled: %w", err)
	}
	return nil
}

// ResetAll clears both collections unconditionally, for callers about to
// force a full resynchronization with the backend.
func (l *Ledger) ResetAll(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.SaveAssignments(ctx, nil); err != nil {
		return fmt.Errorf("ledger.ResetAll: %w", err)
	}
	if err := l.store.SaveOrderFields(ctx, nil); err != nil {
		return fmt.Errorf("ledger.ResetAll: %w", err)
	}
	return nil
}
