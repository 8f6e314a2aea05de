package main

import (
	"math"
	"testing"
)

type aggregatorRecorder struct {
	progress []AggregateProgress
	finishes []error
	aborts   []string
}

func newRecordedAggregator() (*TransferAggregator, *aggregatorRecorder) {
	rec := &aggregatorRecorder{}
	agg := NewTransferAggregator(
		func(p AggregateProgress) { rec.progress = append(rec.progress, p) },
		func(direction string, err error) { rec.finishes = append(rec.finishes, err) },
		func(sessionID string) { rec.aborts = append(rec.aborts, sessionID) },
	)
	return agg, rec
}

func (r *aggregatorRecorder) lastProgress(t *testing.T) AggregateProgress {
	t.Helper()
	if len(r.progress) == 0 {
		t.Fatal("no progress events recorded")
	}
	return r.progress[len(r.progress)-1]
}

func TestAggregatorBatchPercent(t *testing.T) {
	agg, rec := newRecordedAggregator()

	agg.Consume(TransferProgress{Phase: TransferPhaseBatchStart, SessionID: "s", Direction: "upload", TotalFiles: 3})
	agg.Consume(TransferProgress{Phase: TransferPhaseComplete, FileIndex: 1, TotalFiles: 3})
	agg.Consume(TransferProgress{Phase: TransferPhaseProgress, FileIndex: 2, TotalFiles: 3, Percent: 50, BytesPerSec: 1000})
	agg.Consume(TransferProgress{Phase: TransferPhaseProgress, FileIndex: 3, TotalFiles: 3, Percent: 0, BytesPerSec: 500})

	last := rec.lastProgress(t)
	if math.Abs(last.Percent-50.0) > 0.001 {
		t.Fatalf("expected aggregate percent 50, got %v", last.Percent)
	}
	if last.CompletedFiles != 1 || last.TotalFiles != 3 {
		t.Fatalf("unexpected counts: %+v", last)
	}
	if last.BytesPerSec != 1500 {
		t.Fatalf("throughput should sum active files only, got %v", last.BytesPerSec)
	}
}

func TestAggregatorLazyInitWithoutBatchStart(t *testing.T) {
	agg, rec := newRecordedAggregator()

	// A single-file operation may skip batch-start entirely.
	agg.Consume(TransferProgress{Phase: TransferPhaseProgress, SessionID: "s", Direction: "download", FileIndex: 1, TotalFiles: 1, Percent: 40})

	if !agg.Active() {
		t.Fatal("mid-stream event should open the batch lazily")
	}
	last := rec.lastProgress(t)
	if last.SessionID != "s" || last.Direction != "download" {
		t.Fatalf("lazy init lost event identity: %+v", last)
	}
	if last.Percent != 40 {
		t.Fatalf("expected 40 percent, got %v", last.Percent)
	}
}

func TestAggregatorCompletedFilesExcludedFromThroughput(t *testing.T) {
	agg, rec := newRecordedAggregator()

	agg.Consume(TransferProgress{Phase: TransferPhaseBatchStart, TotalFiles: 2})
	agg.Consume(TransferProgress{Phase: TransferPhaseProgress, FileIndex: 1, Percent: 90, BytesPerSec: 2000})
	agg.Consume(TransferProgress{Phase: TransferPhaseComplete, FileIndex: 1})
	agg.Consume(TransferProgress{Phase: TransferPhaseProgress, FileIndex: 2, Percent: 10, BytesPerSec: 300})

	last := rec.lastProgress(t)
	if last.BytesPerSec != 300 {
		t.Fatalf("completed file still contributing throughput: %v", last.BytesPerSec)
	}
	// The completed file counts as a full 100 regardless of its last
	// reported percent.
	if math.Abs(last.Percent-55.0) > 0.001 {
		t.Fatalf("expected 55 percent, got %v", last.Percent)
	}
}

func TestAggregatorPercentClamped(t *testing.T) {
	agg, rec := newRecordedAggregator()

	agg.Consume(TransferProgress{Phase: TransferPhaseBatchStart, TotalFiles: 1})
	agg.Consume(TransferProgress{Phase: TransferPhaseProgress, FileIndex: 1, Percent: 150})

	if last := rec.lastProgress(t); last.Percent != 100 {
		t.Fatalf("percent not clamped to 100, got %v", last.Percent)
	}
}

func TestAggregatorBatchCompleteFinishesAndResets(t *testing.T) {
	agg, rec := newRecordedAggregator()

	agg.Consume(TransferProgress{Phase: TransferPhaseBatchStart, SessionID: "s", Direction: "upload", TotalFiles: 1})
	agg.Consume(TransferProgress{Phase: TransferPhaseComplete, FileIndex: 1})
	agg.Consume(TransferProgress{Phase: TransferPhaseBatchComplete})

	if len(rec.finishes) != 1 || rec.finishes[0] != nil {
		t.Fatalf("expected one clean finish, got %v", rec.finishes)
	}
	if agg.Active() {
		t.Fatal("aggregator should be inactive after batch-complete")
	}
}

func TestAggregatorErrorFinishesWithError(t *testing.T) {
	agg, rec := newRecordedAggregator()

	agg.Consume(TransferProgress{Phase: TransferPhaseBatchStart, TotalFiles: 2})
	agg.Consume(TransferProgress{Phase: TransferPhaseError, ErrorMessage: "disk full"})

	if len(rec.finishes) != 1 || rec.finishes[0] == nil {
		t.Fatalf("expected one failed finish, got %v", rec.finishes)
	}
	if rec.finishes[0].Error() != "disk full" {
		t.Fatalf("error message lost: %v", rec.finishes[0])
	}
	if agg.Active() {
		t.Fatal("aggregator should reset after an error")
	}
}

func TestAggregatorCancelDiscardsLaterEvents(t *testing.T) {
	agg, rec := newRecordedAggregator()

	agg.Consume(TransferProgress{Phase: TransferPhaseBatchStart, SessionID: "s", TotalFiles: 2})
	agg.Consume(TransferProgress{Phase: TransferPhaseProgress, FileIndex: 1, Percent: 10})
	before := len(rec.progress)

	agg.Cancel()
	if len(rec.aborts) != 1 || rec.aborts[0] != "s" {
		t.Fatalf("cancel should abort session s, got %v", rec.aborts)
	}

	// In-flight events after cancellation are discarded.
	agg.Consume(TransferProgress{Phase: TransferPhaseProgress, FileIndex: 1, Percent: 90})
	agg.Consume(TransferProgress{Phase: TransferPhaseComplete, FileIndex: 1})
	if len(rec.progress) != before {
		t.Fatal("progress events leaked after cancel")
	}

	// The terminal event closes the batch silently: no finish callback.
	agg.Consume(TransferProgress{Phase: TransferPhaseBatchComplete})
	if len(rec.finishes) != 0 {
		t.Fatalf("cancelled batch must not report a finish, got %v", rec.finishes)
	}
}

func TestAggregatorCancelIsNoOpWhenIdle(t *testing.T) {
	agg, rec := newRecordedAggregator()

	agg.Cancel()
	if len(rec.aborts) != 0 {
		t.Fatal("cancel with no batch should not abort anything")
	}
}

func TestAggregatorNewBatchReopensAfterCancel(t *testing.T) {
	agg, rec := newRecordedAggregator()

	agg.Consume(TransferProgress{Phase: TransferPhaseBatchStart, SessionID: "s1", TotalFiles: 2})
	agg.Cancel()

	// A new batch-start clears the cancelled flag even if the old
	// batch's terminal event never arrived.
	agg.Consume(TransferProgress{Phase: TransferPhaseBatchStart, SessionID: "s2", Direction: "download", TotalFiles: 1})
	agg.Consume(TransferProgress{Phase: TransferPhaseProgress, FileIndex: 1, Percent: 25})

	last := rec.lastProgress(t)
	if last.SessionID != "s2" || last.Percent != 25 {
		t.Fatalf("new batch not tracking cleanly after cancel: %+v", last)
	}
}

func TestAggregatorStragglersAfterErrorDoNotReopenBatch(t *testing.T) {
	agg, rec := newRecordedAggregator()

	agg.Consume(TransferProgress{Phase: TransferPhaseBatchStart, SessionID: "s", Direction: "upload", TotalFiles: 3})
	agg.Consume(TransferProgress{Phase: TransferPhaseProgress, FileIndex: 1, Percent: 20})
	agg.Consume(TransferProgress{Phase: TransferPhaseError, ErrorMessage: "write failed"})

	published := len(rec.progress)

	// Parallel workers that outlived the failed batch keep reporting
	// briefly. Their events must not open a new batch.
	agg.Consume(TransferProgress{Phase: TransferPhaseProgress, SessionID: "s", FileIndex: 2, Percent: 60})
	agg.Consume(TransferProgress{Phase: TransferPhaseComplete, SessionID: "s", FileIndex: 3})

	if agg.Active() {
		t.Fatal("straggler events reopened a batch after the error reset")
	}
	if len(rec.progress) != published {
		t.Fatal("straggler events leaked progress after the error reset")
	}

	// The next real batch opens normally.
	agg.Consume(TransferProgress{Phase: TransferPhaseBatchStart, SessionID: "s2", Direction: "download", TotalFiles: 1})
	agg.Consume(TransferProgress{Phase: TransferPhaseProgress, FileIndex: 1, Percent: 10})
	if !agg.Active() || rec.lastProgress(t).SessionID != "s2" {
		t.Fatal("batch-start after an error should open a fresh batch")
	}
}

func TestAggregatorWidensTotalFromLateEvents(t *testing.T) {
	agg, rec := newRecordedAggregator()

	agg.Consume(TransferProgress{Phase: TransferPhaseProgress, FileIndex: 1, TotalFiles: 0, Percent: 100})
	agg.Consume(TransferProgress{Phase: TransferPhaseProgress, FileIndex: 4, TotalFiles: 4, Percent: 0})

	if last := rec.lastProgress(t); last.TotalFiles != 4 {
		t.Fatalf("late event should widen the batch, got total %d", last.TotalFiles)
	}
}
