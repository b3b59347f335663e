package monitoring

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrorReport is a single reported failure
type ErrorReport struct {
	ID         uuid.UUID         `json:"id"`
	Message    string            `json:"message"`
	Tags       map[string]string `json:"tags"`
	ReportedAt time.Time         `json:"reported_at"`
}

// Stats summarizes reports seen since start
type Stats struct {
	Reported  int64            `json:"reported"`
	Dropped   int64            `json:"dropped"`
	BySection map[string]int64 `json:"by_section"`
}

// Reporter ships error reports to the log off the request path
type Reporter struct {
	logger  *zap.Logger
	queue   chan *ErrorReport
	done    chan struct{}
	once    sync.Once
	dropped atomic.Int64

	mu        sync.Mutex
	reported  int64
	bySection map[string]int64
}

// NewReporter creates a reporter with a queue of the given size and starts its worker
func NewReporter(logger *zap.Logger, queueSize int) *Reporter {
	if queueSize <= 0 {
		queueSize = 256
	}
	r := &Reporter{
		logger:    logger,
		queue:     make(chan *ErrorReport, queueSize),
		done:      make(chan struct{}),
		bySection: make(map[string]int64),
	}
	go r.run()
	return r
}

// ReportError queues err with its tags. It never blocks; a full queue drops the report.
func (r *Reporter) ReportError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	copied := make(map[string]string, len(tags))
	for k, v := range tags {
		copied[k] = v
	}
	report := &ErrorReport{
		ID:         uuid.New(),
		Message:    err.Error(),
		Tags:       copied,
		ReportedAt: time.Now(),
	}

	defer func() {
		// queue closed by Close
		if recover() != nil {
			r.dropped.Add(1)
		}
	}()

	select {
	case r.queue <- report:
	default:
		r.dropped.Add(1)
	}
}

func (r *Reporter) run() {
	defer close(r.done)
	for report := range r.queue {
		r.record(report)
	}
}

func (r *Reporter) record(report *ErrorReport) {
	r.mu.Lock()
	r.reported++
	section := report.Tags["section"]
	if section == "" {
		section = "unknown"
	}
	r.bySection[section]++
	r.mu.Unlock()

	keys := make([]string, 0, len(report.Tags))
	for k := range report.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := []zap.Field{
		zap.String("report_id", report.ID.String()),
		zap.Error(errors.New(report.Message)),
		zap.Time("reported_at", report.ReportedAt),
	}
	for _, k := range keys {
		fields = append(fields, zap.String("tag."+k, report.Tags[k]))
	}
	r.logger.Error("Error reported", fields...)
}

// Stats returns counters of processed and dropped reports
func (r *Reporter) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	bySection := make(map[string]int64, len(r.bySection))
	for k, v := range r.bySection {
		bySection[k] = v
	}
	return Stats{
		Reported:  r.reported,
		Dropped:   r.dropped.Load(),
		BySection: bySection,
	}
}

// Close drains queued reports and stops the worker
func (r *Reporter) Close() {
	r.once.Do(func() {
		close(r.queue)
	})
	<-r.done
}
