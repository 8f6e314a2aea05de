package main

import (
	"errors"
	"sync"
	"time"
)

// Transfer progress phases carried on the event stream
const (
	TransferPhaseBatchStart    = "batch-start"
	TransferPhaseStart         = "start"
	TransferPhaseProgress      = "progress"
	TransferPhaseComplete      = "complete"
	TransferPhaseError         = "error"
	TransferPhaseBatchComplete = "batch-complete"
)

// stragglerGrace is how long after an error reset mid-stream events are
// dropped instead of lazily reopening a batch. Parallel workers that
// outlive a failed batch keep reporting for a moment; without the
// window their events would open a ghost batch with no terminal event.
const stragglerGrace = 2 * time.Second

// AggregateProgress is the single reduced signal for an in-flight
// multi-file transfer batch.
type AggregateProgress struct {
	SessionID      string  `json:"sessionId"`
	Direction      string  `json:"direction"` // "upload" or "download"
	TotalFiles     int     `json:"totalFiles"`
	CompletedFiles int     `json:"completedFiles"`
	Percent        float64 `json:"percent"`
	BytesPerSec    float64 `json:"bytesPerSec"`
}

// TransferAggregator reduces per-file transfer events into one overall
// percentage and throughput figure. Files may report out of order; a
// batch may also begin without a batch-start when a single-file
// operation skips it, in which case state is initialized lazily from
// the first event seen.
type TransferAggregator struct {
	onProgress func(aggregate AggregateProgress)
	onFinish   func(direction string, err error)
	onAbort    func(sessionID string)

	active     bool
	cancelled  bool
	sessionID  string
	direction  string
	totalFiles int
	percents   map[int]float64
	speeds     map[int]float64
	completed  map[int]bool
	erroredAt  time.Time
	mutex      sync.Mutex
}

// NewTransferAggregator creates an inactive aggregator. onProgress
// fires on every accepted progress event, onFinish once per batch with
// a nil error on success, and onAbort when Cancel asks the underlying
// transfer to stop.
func NewTransferAggregator(onProgress func(AggregateProgress), onFinish func(string, error), onAbort func(string)) *TransferAggregator {
	return &TransferAggregator{
		onProgress: onProgress,
		onFinish:   onFinish,
		onAbort:    onAbort,
		percents:   make(map[int]float64),
		speeds:     make(map[int]float64),
		completed:  make(map[int]bool),
	}
}

// Consume feeds one phase-tagged event into the aggregator.
func (ta *TransferAggregator) Consume(event TransferProgress) {
	ta.mutex.Lock()

	switch event.Phase {
	case TransferPhaseBatchStart:
		// A new batch always reopens state, including after a
		// cancellation whose terminal event never arrived.
		ta.resetLocked()
		ta.active = true
		ta.sessionID = event.SessionID
		ta.direction = event.Direction
		ta.totalFiles = event.TotalFiles
		if ta.totalFiles < 1 {
			ta.totalFiles = 1
		}
		ta.mutex.Unlock()

	case TransferPhaseStart, TransferPhaseProgress:
		if ta.cancelled || ta.isStragglerLocked() {
			ta.mutex.Unlock()
			return
		}
		ta.ensureBatchLocked(event)
		ta.percents[event.FileIndex] = event.Percent
		ta.speeds[event.FileIndex] = event.BytesPerSec
		aggregate := ta.snapshotLocked()
		ta.mutex.Unlock()
		ta.onProgress(aggregate)

	case TransferPhaseComplete:
		if ta.cancelled || ta.isStragglerLocked() {
			ta.mutex.Unlock()
			return
		}
		ta.ensureBatchLocked(event)
		ta.completed[event.FileIndex] = true
		aggregate := ta.snapshotLocked()
		ta.mutex.Unlock()
		ta.onProgress(aggregate)

	case TransferPhaseError:
		wasCancelled := ta.cancelled
		direction := ta.direction
		ta.resetLocked()
		ta.erroredAt = time.Now()
		ta.mutex.Unlock()
		if !wasCancelled {
			ta.onFinish(direction, errors.New(event.ErrorMessage))
		}

	case TransferPhaseBatchComplete:
		wasCancelled := ta.cancelled
		direction := ta.direction
		ta.resetLocked()
		ta.mutex.Unlock()
		if !wasCancelled {
			ta.onFinish(direction, nil)
		}

	default:
		ta.mutex.Unlock()
	}
}

// Cancel marks the current batch cancelled and asks the underlying
// transfer to abort. Later events for the batch are discarded; the
// batch's terminal event (or the next batch-start) clears the flag.
func (ta *TransferAggregator) Cancel() {
	ta.mutex.Lock()
	if !ta.active {
		ta.mutex.Unlock()
		return
	}
	ta.cancelled = true
	sessionID := ta.sessionID
	ta.mutex.Unlock()

	ta.onAbort(sessionID)
}

// Active reports whether a batch is currently being aggregated.
func (ta *TransferAggregator) Active() bool {
	ta.mutex.Lock()
	defer ta.mutex.Unlock()
	return ta.active
}

// isStragglerLocked reports whether a mid-stream event arrived inside
// the post-error window while no batch is open. batch-start clears the
// window.
func (ta *TransferAggregator) isStragglerLocked() bool {
	return !ta.active && !ta.erroredAt.IsZero() && time.Since(ta.erroredAt) < stragglerGrace
}

// ensureBatchLocked lazily opens batch state from a mid-stream event
// and widens totalFiles if a later event proves the batch larger than
// first assumed.
func (ta *TransferAggregator) ensureBatchLocked(event TransferProgress) {
	if !ta.active {
		ta.active = true
		ta.sessionID = event.SessionID
		ta.direction = event.Direction
		ta.totalFiles = event.TotalFiles
		if ta.totalFiles < 1 {
			ta.totalFiles = event.FileIndex
		}
		if ta.totalFiles < 1 {
			ta.totalFiles = 1
		}
	}
	if event.TotalFiles > ta.totalFiles {
		ta.totalFiles = event.TotalFiles
	}
	if event.FileIndex > ta.totalFiles {
		ta.totalFiles = event.FileIndex
	}
}

// snapshotLocked computes the aggregate view of the current batch.
// Completed files count as 100 percent and contribute no throughput.
func (ta *TransferAggregator) snapshotLocked() AggregateProgress {
	sum := 0.0
	throughput := 0.0
	for index, percent := range ta.percents {
		if ta.completed[index] {
			continue
		}
		sum += percent
		throughput += ta.speeds[index]
	}
	sum += float64(len(ta.completed)) * 100.0

	percent := 0.0
	if ta.totalFiles > 0 {
		percent = sum / float64(ta.totalFiles)
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	return AggregateProgress{
		SessionID:      ta.sessionID,
		Direction:      ta.direction,
		TotalFiles:     ta.totalFiles,
		CompletedFiles: len(ta.completed),
		Percent:        percent,
		BytesPerSec:    throughput,
	}
}

// resetLocked returns the aggregator to the inactive state.
func (ta *TransferAggregator) resetLocked() {
	ta.erroredAt = time.Time{}
	ta.active = false
	ta.cancelled = false
	ta.sessionID = ""
	ta.direction = ""
	ta.totalFiles = 0
	ta.percents = make(map[int]float64)
	ta.speeds = make(map[int]float64)
	ta.completed = make(map[int]bool)
}
