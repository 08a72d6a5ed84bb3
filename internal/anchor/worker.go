package anchor

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Worker anchors records in the background so request handlers never block
// on ledger round-trip latency. Callers enqueue a record ID and receive an
// immediate acknowledgment; the anchor receipt is applied asynchronously.
//
// The queue is bounded and drained by a single goroutine: submissions are
// deliberately sequential (blockhash validity windows, per-account rate
// limits), and the per-record mutex in the Service makes a queued duplicate
// a cheap idempotent no-op rather than a double anchor. An in-flight
// submission is never cancelled — once the network has the transaction,
// ordering is its responsibility.
type Worker struct {
	svc     *Service
	queue   chan uuid.UUID
	timeout time.Duration
	logger  *zap.Logger
}

// NewWorker creates a Worker with the given queue capacity.
func NewWorker(svc *Service, queueSize int, logger *zap.Logger) *Worker {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Worker{
		svc:     svc,
		queue:   make(chan uuid.UUID, queueSize),
		timeout: 30 * time.Second,
		logger:  logger,
	}
}

// Enqueue schedules a record for background anchoring. It never blocks;
// when the queue is full it reports false and the record stays unanchored
// until a later anchor-all run picks it up.
func (w *Worker) Enqueue(id uuid.UUID) bool {
	select {
	case w.queue <- id:
		return true
	default:
		w.logger.Warn("anchor queue full, dropping background anchor",
			zap.String("record_id", id.String()),
		)
		return false
	}
}

// Start drains the queue until quit is signalled. Run it in its own
// goroutine from the composition root.
func (w *Worker) Start(quit <-chan os.Signal) {
	for {
		select {
		case id := <-w.queue:
			w.anchorOne(id)
		case <-quit:
			w.logger.Info("anchor worker stopping", zap.Int("queued", len(w.queue)))
			return
		}
	}
}

func (w *Worker) anchorOne(id uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	receipt, err := w.svc.Anchor(ctx, id)
	if err != nil {
		// Best-effort: the record stays unanchored and remains eligible for
		// a manual anchor or the next anchor-all run.
		w.logger.Warn("background anchor failed",
			zap.String("record_id", id.String()),
			zap.Error(err),
		)
		return
	}
	if receipt.AlreadyAnchored {
		return
	}
	w.logger.Info("background anchor applied",
		zap.String("record_id", id.String()),
		zap.String("tx_signature", receipt.TxSignature),
	)
}
