package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"streamledger/core/events"
	"streamledger/core/state"
	"streamledger/crypto"
	"streamledger/native/bank"
	"streamledger/native/challenge"
	"streamledger/native/common"
	"streamledger/native/creator"
	"streamledger/native/points"
	"streamledger/native/settlement"
	"streamledger/native/stream"
	"streamledger/native/subscription"
	"streamledger/observability"
	"streamledger/observability/logging"
	telemetry "streamledger/observability/otel"
	"streamledger/storage"
)

var (
	ErrNotAdmin      = fmt.Errorf("ledger: caller is not the administrator: %w", common.ErrNotAuthorized)
	ErrUnknownModule = fmt.Errorf("ledger: unknown module: %w", common.ErrInvalidField)

	errAdminNotSet = errors.New("ledger: administrator not configured")
)

var modules = map[string]struct{}{
	common.ModuleCreator:      {},
	common.ModuleStream:       {},
	common.ModulePoints:       {},
	common.ModuleSettlement:   {},
	common.ModuleSubscription: {},
	common.ModuleChallenge:    {},
}

// Options configures a Ledger. A zero PointParams or a nil PlatformFeePercent
// or BonusMultiplier keeps the engine default; a non-nil zero is honoured.
type Options struct {
	Admin              [20]byte
	PlatformAccount    [20]byte
	RewardsPool        [20]byte
	PlatformFeePercent *uint64
	PointParams        points.Params
	BonusMultiplier    *uint64
	PausedModules      []string

	Identity IdentityProvider
	Clock    TimeOracle
	Emitter  events.Emitter
	Logger   *slog.Logger
	Metrics  *observability.LedgerMetrics
}

// Ledger coordinates every engine over a single journaled state. Operations
// run one at a time; each either commits all of its writes in one storage
// batch or none of them, and its events are released only after commit.
type Ledger struct {
	mu sync.Mutex

	state         *state.Manager
	bank          *bank.Ledger
	creators      *creator.Engine
	streams       *stream.Engine
	points        *points.Engine
	settlement    *settlement.Engine
	subscriptions *subscription.Engine
	challenges    *challenge.Engine

	buffer   *events.Buffer
	emitter  events.Emitter
	identity IdentityProvider
	clock    TimeOracle
	admin    [20]byte
	paused   map[string]bool
	now      uint64

	logger  *slog.Logger
	metrics *observability.LedgerMetrics
	tracer  trace.Tracer
}

// New wires the engines over db.
func New(db storage.Database, opts Options) (*Ledger, error) {
	if db == nil {
		return nil, errors.New("ledger: database required")
	}
	l := &Ledger{
		state:    state.NewManager(db),
		buffer:   &events.Buffer{},
		identity: opts.Identity,
		clock:    opts.Clock,
		admin:    opts.Admin,
		paused:   make(map[string]bool),
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		tracer:   telemetry.Tracer(),
	}
	if l.identity == nil {
		l.identity = ContextIdentity{}
	}
	if l.clock == nil {
		l.clock = SystemClock{}
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	emitters := events.Multi{metricsEmitter{metrics: l.metrics}}
	if opts.Emitter != nil {
		emitters = append(emitters, opts.Emitter)
	}
	l.emitter = emitters
	for _, module := range opts.PausedModules {
		name := strings.ToLower(strings.TrimSpace(module))
		if _, ok := modules[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownModule, module)
		}
		l.paused[name] = true
	}

	nowFn := func() uint64 { return l.now }

	l.bank = bank.NewLedger(l.state)
	l.bank.SetEmitter(l.buffer)

	l.creators = creator.NewEngine()
	l.creators.SetState(l.state)
	l.creators.SetEmitter(l.buffer)
	l.creators.SetNowFunc(nowFn)

	l.streams = stream.NewEngine()
	l.streams.SetState(l.state)
	l.streams.SetRegistry(l.creators)
	l.streams.SetEmitter(l.buffer)
	l.streams.SetNowFunc(nowFn)

	l.points = points.NewEngine()
	l.points.SetState(l.state)
	l.points.SetStreams(l.streams)
	l.points.SetBank(l.bank)
	l.points.SetRewardsPool(opts.RewardsPool)
	l.points.SetEmitter(l.buffer)
	l.points.SetNowFunc(nowFn)
	if opts.PointParams != (points.Params{}) {
		if err := l.points.SetParams(opts.PointParams); err != nil {
			return nil, err
		}
	}

	l.settlement = settlement.NewEngine()
	l.settlement.SetState(l.state)
	l.settlement.SetBank(l.bank)
	l.settlement.SetRegistry(l.creators)
	l.settlement.SetStreams(l.streams)
	l.settlement.SetEngagements(l.points)
	l.settlement.SetPlatformAccount(opts.PlatformAccount)
	l.settlement.SetEmitter(l.buffer)
	if opts.PlatformFeePercent != nil {
		if err := l.settlement.SetDefaultPercent(*opts.PlatformFeePercent); err != nil {
			return nil, err
		}
	}

	l.subscriptions = subscription.NewEngine()
	l.subscriptions.SetState(l.state)
	l.subscriptions.SetRegistry(l.creators)
	l.subscriptions.SetSettler(l.settlement)
	l.subscriptions.SetRewards(l.points)
	l.subscriptions.SetEmitter(l.buffer)
	l.subscriptions.SetNowFunc(nowFn)
	if opts.BonusMultiplier != nil {
		l.subscriptions.SetBonusMultiplier(*opts.BonusMultiplier)
	}

	l.challenges = challenge.NewEngine()
	l.challenges.SetState(l.state)
	l.challenges.SetStreams(l.streams)
	l.challenges.SetBank(l.bank)
	l.challenges.SetEmitter(l.buffer)
	l.challenges.SetNowFunc(nowFn)

	return l, nil
}

// pauseView combines configured pauses with those stored in state. A state
// read failure reports the module as paused.
type pauseView struct {
	static map[string]bool
	state  *state.Manager
}

func (p pauseView) IsPaused(module string) bool {
	if p.static[module] {
		return true
	}
	paused, err := p.state.ModulePaused(module)
	if err != nil {
		return true
	}
	return paused
}

// execute runs fn as one atomic operation on behalf of the resolved caller.
// module may be empty for operations no pause flag applies to.
func (l *Ledger) execute(ctx context.Context, op, module string, fn func(caller [20]byte) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := l.tracer.Start(ctx, "ledger."+op, trace.WithAttributes(attribute.String("ledger.operation", op)))
	defer span.End()
	start := time.Now()

	caller, err := l.identity.Caller(ctx)
	if err != nil {
		l.finish(span, op, [20]byte{}, start, err)
		return err
	}
	span.SetAttributes(attribute.String("ledger.caller", crypto.FormatAccount(caller)))

	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = l.clock.Now()

	err = common.Guard(pauseView{static: l.paused, state: l.state}, module)
	if err == nil {
		err = fn(caller)
	}
	if err == nil {
		err = l.state.Commit()
	}
	if err != nil {
		l.state.Discard()
		l.buffer.Reset()
		l.finish(span, op, caller, start, err)
		return err
	}
	l.buffer.Flush(l.emitter)
	if distributed, derr := l.state.PointsDistributed(); derr == nil {
		l.metrics.SetPointsDistributed(distributed)
	}
	l.finish(span, op, caller, start, nil)
	return nil
}

func (l *Ledger) finish(span trace.Span, op string, caller [20]byte, start time.Time, err error) {
	outcome := outcomeLabel(err)
	l.metrics.RecordOperation(op, outcome, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		l.logger.Warn("ledger operation failed",
			logging.MaskField("operation", op),
			logging.MaskField("caller", crypto.FormatAccount(caller)),
			logging.MaskField("category", outcome),
			slog.Any("error", err))
		return
	}
	span.SetStatus(codes.Ok, "")
	l.logger.Debug("ledger operation committed",
		logging.MaskField("operation", op),
		logging.MaskField("caller", crypto.FormatAccount(caller)))
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	category := common.Category(err)
	if category == nil {
		return "internal"
	}
	return strings.ReplaceAll(category.Error(), " ", "_")
}

// requireAdmin rejects callers other than the configured administrator.
func (l *Ledger) requireAdmin(caller [20]byte) error {
	var zero [20]byte
	if l.admin == zero {
		return errAdminNotSet
	}
	if caller != l.admin {
		return ErrNotAdmin
	}
	return nil
}

// query runs a read-only lookup under the ledger lock. The journal is empty
// between operations, so lookups only see committed state.
func (l *Ledger) query(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = l.clock.Now()
	return fn()
}
