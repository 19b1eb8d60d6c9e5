package core

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"jungle/core/events"
	"jungle/core/state"
	"jungle/core/types"
	"jungle/native/bank"
	"jungle/native/jungle"
	"jungle/native/lottery"
	"jungle/observability/metrics"
	"jungle/storage"
)

var (
	// ErrContractBreach is returned when an operation aborted because an
	// engine hit a broken precondition (for example accruing rewards with no
	// staked animals). Nothing the operation wrote is persisted.
	ErrContractBreach = fmt.Errorf("core: contract breach: %w", metrics.ErrPanicked)

	errNilDatabase = errors.New("core: database required")
)

// Node is the operation host. Every mutating call runs as one unit of work:
// a single writer at a time, a fresh state overlay, and either one atomic
// commit followed by event delivery or a full rollback.
type Node struct {
	db      storage.Database
	stateMu sync.Mutex
	emitter events.Emitter
	nowFn   func() int64
	logger  *slog.Logger
	metrics *metrics.LedgerMetrics
}

// NewNode constructs a node persisting into db.
func NewNode(db storage.Database) (*Node, error) {
	if db == nil {
		return nil, errNilDatabase
	}
	return &Node{
		db:      db,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
		logger:  slog.Default(),
	}, nil
}

// SetEmitter configures where committed events are delivered.
func (n *Node) SetEmitter(emitter events.Emitter) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	n.emitter = emitter
}

// SetNowFunc overrides the clock handed to the engines.
func (n *Node) SetNowFunc(now func() int64) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	n.nowFn = now
}

// SetLogger configures the structured logger.
func (n *Node) SetLogger(logger *slog.Logger) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	if logger == nil {
		logger = slog.Default()
	}
	n.logger = logger
}

// SetMetrics enables prometheus instrumentation. Nil disables it.
func (n *Node) SetMetrics(m *metrics.LedgerMetrics) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	n.metrics = m
}

// session bundles the engines bound to one state overlay.
type session struct {
	manager  *state.Manager
	ledger   *bank.Ledger
	jungle   *jungle.Engine
	lottery  *lottery.Engine
	metrics  *metrics.LedgerMetrics
	onCommit []func()
}

func (n *Node) newSession(manager *state.Manager, emitter events.Emitter) *session {
	ledger := bank.NewLedger(manager)
	ledger.SetEmitter(emitter)

	jungleEngine := jungle.NewEngine()
	jungleEngine.SetState(manager)
	jungleEngine.SetLedger(ledger)
	jungleEngine.SetEmitter(emitter)
	jungleEngine.SetNowFunc(n.nowFn)

	lotteryEngine := lottery.NewEngine()
	lotteryEngine.SetState(manager)
	lotteryEngine.SetLedger(ledger)
	lotteryEngine.SetEmitter(emitter)
	lotteryEngine.SetNowFunc(n.nowFn)

	return &session{
		manager: manager,
		ledger:  ledger,
		jungle:  jungleEngine,
		lottery: lotteryEngine,
		metrics: n.metrics,
	}
}

func (s *session) observeJungle(key types.Identity) {
	if s.metrics == nil {
		return
	}
	cfg, err := s.jungle.Jungle(key)
	if err != nil {
		return
	}
	m, label, staked := s.metrics, cfg.Key.String(), cfg.AnimalsStaked
	s.onCommit = append(s.onCommit, func() { m.SetAnimalsStaked(label, staked) })
}

func (s *session) observeLottery(key types.Identity) {
	if s.metrics == nil {
		return
	}
	cfg, err := s.lottery.Lottery(key)
	if err != nil {
		return
	}
	m, label, round, unclaimed := s.metrics, cfg.Key.String(), cfg.LastRound, cfg.UnclaimedPot
	s.onCommit = append(s.onCommit, func() { m.SetLottery(label, round, unclaimed) })
}

// apply runs fn inside a single atomic unit of work. A returned error or a
// panic discards every pending write and every buffered event.
func (n *Node) apply(op string, fn func(*session) error) (err error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	started := time.Now()
	manager := state.NewManager(n.db)
	buffer := &events.Buffer{}
	sess := n.newSession(manager, buffer)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrContractBreach, op, r)
			n.logger.Error("operation panicked", "operation", op, "error", err)
		}
		if err != nil {
			manager.Discard()
			buffer.Reset()
			if !errors.Is(err, ErrContractBreach) {
				n.logger.Warn("operation aborted", "operation", op, "error", err)
			}
		}
		n.metrics.ObserveOperation(op, time.Since(started), err)
	}()

	if err = fn(sess); err != nil {
		return err
	}
	writes := manager.Dirty()
	if err = manager.Commit(); err != nil {
		return err
	}
	pending := len(buffer.Events())
	buffer.Flush(n.emitter)
	for _, hook := range sess.onCommit {
		hook()
	}
	n.logger.Debug("operation committed",
		"operation", op,
		"writes", writes,
		"events", pending,
		"duration", time.Since(started))
	return nil
}

// view runs a read-only fn against a throwaway overlay.
func (n *Node) view(fn func(*session) error) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	manager := state.NewManager(n.db)
	defer manager.Discard()
	return fn(n.newSession(manager, events.NoopEmitter{}))
}

// Now returns the node clock.
func (n *Node) Now() int64 {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.nowFn()
}
