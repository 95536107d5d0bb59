// Package reports archives execution outcomes as JSON artifacts in a blob
// store. Archiving is asynchronous so operator requests never wait on object
// storage.
package reports

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"skyops/internal/blob"
	"skyops/internal/core"
)

// ReportStatus describes the lifecycle stage of an archive request.
type ReportStatus string

const (
	ReportStatusQueued    ReportStatus = "queued"
	ReportStatusRunning   ReportStatus = "running"
	ReportStatusSucceeded ReportStatus = "succeeded"
	ReportStatusFailed    ReportStatus = "failed"
)

// ReportRecord tracks an archive request and the stored artifact.
type ReportRecord struct {
	ID          string       `json:"id"`
	RequestKind string       `json:"request_kind"`
	Status      ReportStatus `json:"status"`
	Error       string       `json:"error,omitempty"`
	Key         string       `json:"key,omitempty"`
	URL         string       `json:"url,omitempty"`
	SizeBytes   int64        `json:"size_bytes,omitempty"`
	RequestedBy string       `json:"requested_by"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

func (r ReportRecord) copy() ReportRecord {
	out := r
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// ReportInput represents an enqueue request for the worker.
type ReportInput struct {
	RequestKind string
	Result      *core.ExecutionResult
	RequestedBy string
	Reason      string
}

// AuditLogger records archive audit entries.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditEntry captures audit trail metadata for report archives.
type AuditEntry struct {
	ID          string         `json:"id"`
	Action      string         `json:"action"`
	Actor       string         `json:"actor"`
	RequestKind string         `json:"request_kind"`
	Status      ReportStatus   `json:"status"`
	Reason      string         `json:"reason,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

// Worker archives execution reports asynchronously.
type Worker struct {
	store blob.Store
	audit AuditLogger

	queue chan archiveTask
	mu    sync.RWMutex
	jobs  map[string]*ReportRecord

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type archiveTask struct {
	id    string
	input ReportInput
}

// NewWorker constructs a report archive worker.
func NewWorker(store blob.Store, audit AuditLogger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		store:  store,
		audit:  audit,
		queue:  make(chan archiveTask, 32),
		jobs:   make(map[string]*ReportRecord),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing archive requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case task := <-w.queue:
			w.process(task)
		}
	}
}

// Enqueue schedules an archive job and returns the queued record.
func (w *Worker) Enqueue(ctx context.Context, input ReportInput) (ReportRecord, error) {
	if input.Result == nil {
		return ReportRecord{}, fmt.Errorf("execution result required")
	}
	id := newID()
	now := time.Now().UTC()
	record := ReportRecord{
		ID:          id,
		RequestKind: input.RequestKind,
		Status:      ReportStatusQueued,
		RequestedBy: input.RequestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[id] = &record
	queued := record.copy()
	w.mu.Unlock()

	w.recordAudit(ctx, id, ReportStatusQueued, input.Reason, nil)

	select {
	case w.queue <- archiveTask{id: id, input: input}:
	default:
		return ReportRecord{}, fmt.Errorf("archive queue full")
	}
	return queued, nil
}

// Get returns a snapshot of the archive record.
func (w *Worker) Get(id string) (ReportRecord, bool) {
	w.mu.RLock()
	record, ok := w.jobs[id]
	if !ok {
		w.mu.RUnlock()
		return ReportRecord{}, false
	}
	snapshot := record.copy()
	w.mu.RUnlock()
	return snapshot, true
}

func (w *Worker) process(task archiveTask) {
	w.updateStatus(task.id, ReportStatusRunning, "")

	payload, err := json.MarshalIndent(task.input.Result, "", "  ")
	if err != nil {
		w.fail(task.id, fmt.Sprintf("encode report: %v", err))
		return
	}

	key := fmt.Sprintf("reports/%s.json", task.id)
	info, err := w.store.Put(w.ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: "application/json",
		Metadata: map[string]string{
			"request_kind": task.input.RequestKind,
			"requested_by": task.input.RequestedBy,
		},
	})
	if err != nil {
		w.fail(task.id, fmt.Sprintf("store report: %v", err))
		return
	}
	w.complete(task.id, info)
}

func (w *Worker) updateStatus(id string, status ReportStatus, message string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = status
		record.Error = message
		record.UpdatedAt = now
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, id, status, "", nil)
}

func (w *Worker) complete(id string, info blob.Info) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = ReportStatusSucceeded
		record.Error = ""
		record.Key = info.Key
		record.URL = info.URL
		record.SizeBytes = info.Size
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, id, ReportStatusSucceeded, "", map[string]any{"key": info.Key})
}

func (w *Worker) fail(id, reason string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = ReportStatusFailed
		record.Error = reason
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, id, ReportStatusFailed, "", map[string]any{"error": reason})
}

func (w *Worker) recordAudit(ctx context.Context, id string, status ReportStatus, reason string, metadata map[string]any) {
	if w.audit == nil {
		return
	}
	var actor, kind string
	w.mu.RLock()
	if record, ok := w.jobs[id]; ok {
		actor = record.RequestedBy
		kind = record.RequestKind
	}
	w.mu.RUnlock()
	w.audit.Record(ctx, AuditEntry{
		ID:          newID(),
		Action:      "report_archive",
		Actor:       actor,
		RequestKind: kind,
		Status:      status,
		Reason:      reason,
		Metadata:    metadata,
		OccurredAt:  time.Now().UTC(),
	})
}

// MemoryAuditLog captures audit entries in memory for assertions.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// Record stores an audit entry.
func (l *MemoryAuditLog) Record(_ context.Context, entry AuditEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns a copy of the recorded entries.
func (l *MemoryAuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func newID() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("report-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
