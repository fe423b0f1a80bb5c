package stream

import (
	"errors"
	"fmt"
	"time"

	"streamledger/core/events"
	"streamledger/core/types"
	"streamledger/crypto"
	"streamledger/native/common"
)

// SequenceName identifies the global stream id counter.
const SequenceName = "stream"

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
	MaxMediaURILength    = 200
	MaxCategoryLength    = 50
)

var (
	errNilState    = errors.New("stream engine: state not configured")
	errNilRegistry = errors.New("stream engine: creator registry not configured")

	ErrNotRegistered   = fmt.Errorf("stream: creator %w", common.ErrNotFound)
	ErrCreatorInactive = fmt.Errorf("stream: creator %w", common.ErrInactive)
	ErrStreamNotFound  = fmt.Errorf("stream: %w", common.ErrNotFound)
	ErrNotStreamOwner  = fmt.Errorf("stream: caller is not the owner: %w", common.ErrNotAuthorized)
	ErrStreamEnded     = fmt.Errorf("stream: already ended: %w", common.ErrInactive)
	ErrCounterOverflow = fmt.Errorf("stream: counter overflow: %w", common.ErrInvalidAmount)
)

// Registry is the subset of the creator registry used by the stream engine.
type Registry interface {
	RequireActive(addr [20]byte) error
	CreditStreamTime(addr [20]byte, seconds uint64) error
}

type engineState interface {
	StreamGet(id uint64) (*Stream, bool, error)
	StreamPut(stream *Stream) error
	NextSequence(name string) (uint64, error)
}

// Engine manages the stream lifecycle: live on start, terminal once ended.
type Engine struct {
	state    engineState
	registry Registry
	emitter  events.Emitter
	nowFn    func() uint64
}

// NewEngine constructs a stream engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetRegistry configures the creator registry consulted on start and end.
func (e *Engine) SetRegistry(registry Registry) { e.registry = registry }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() uint64) {
	if now == nil {
		e.nowFn = func() uint64 { return uint64(time.Now().Unix()) }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(events.Wrap(evt))
}

func (e *Engine) now() uint64 {
	if e == nil || e.nowFn == nil {
		return uint64(time.Now().Unix())
	}
	return e.nowFn()
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.registry == nil {
		return errNilRegistry
	}
	return nil
}

// Start opens a new live stream owned by the caller.
func (e *Engine) Start(caller [20]byte, title, description, mediaURI, category string) (*Stream, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.registry.RequireActive(caller); err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound):
			return nil, ErrNotRegistered
		case errors.Is(err, common.ErrInactive):
			return nil, ErrCreatorInactive
		default:
			return nil, err
		}
	}
	cleanTitle, err := common.Text("title", title, 1, MaxTitleLength)
	if err != nil {
		return nil, err
	}
	cleanDescription, err := common.Text("description", description, 0, MaxDescriptionLength)
	if err != nil {
		return nil, err
	}
	cleanMedia, err := common.Text("media uri", mediaURI, 0, MaxMediaURILength)
	if err != nil {
		return nil, err
	}
	cleanCategory, err := common.Text("category", category, 0, MaxCategoryLength)
	if err != nil {
		return nil, err
	}
	id, err := e.state.NextSequence(SequenceName)
	if err != nil {
		return nil, err
	}
	stream := &Stream{
		ID:          id,
		Creator:     caller,
		Title:       cleanTitle,
		Description: cleanDescription,
		MediaURI:    cleanMedia,
		Category:    cleanCategory,
		StartedAt:   e.now(),
		Active:      true,
	}
	if err := e.state.StreamPut(stream); err != nil {
		return nil, err
	}
	e.emit(StreamStartedEvent(stream.ID, crypto.FormatAccount(caller), stream.Title, stream.Category))
	return stream.Clone(), nil
}

// End terminates a live stream and credits its duration to the owner.
func (e *Engine) End(caller [20]byte, id uint64) (*Stream, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	stream, err := e.load(id)
	if err != nil {
		return nil, err
	}
	if stream.Creator != caller {
		return nil, ErrNotStreamOwner
	}
	if !stream.Active {
		return nil, ErrStreamEnded
	}
	stream.Active = false
	stream.EndedAt = e.now()
	if err := e.state.StreamPut(stream); err != nil {
		return nil, err
	}
	duration := stream.Duration()
	if err := e.registry.CreditStreamTime(stream.Creator, duration); err != nil {
		return nil, err
	}
	e.emit(StreamEndedEvent(stream.ID, crypto.FormatAccount(stream.Creator), duration))
	return stream.Clone(), nil
}

// RecordViewer bumps the viewer count and the points awarded on a live
// stream. The viewer count grows on every call, not once per distinct viewer.
func (e *Engine) RecordViewer(id uint64, points uint64) (*Stream, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	stream, err := e.load(id)
	if err != nil {
		return nil, err
	}
	if !stream.Active {
		return nil, ErrStreamEnded
	}
	awarded := stream.TotalPointsAwarded + points
	if awarded < stream.TotalPointsAwarded || stream.ViewerCount+1 == 0 {
		return nil, ErrCounterOverflow
	}
	stream.TotalPointsAwarded = awarded
	stream.ViewerCount++
	if err := e.state.StreamPut(stream); err != nil {
		return nil, err
	}
	return stream.Clone(), nil
}

// Stream returns the stream without mutating state.
func (e *Engine) Stream(id uint64) (*Stream, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	stream, err := e.load(id)
	if err != nil {
		return nil, err
	}
	return stream.Clone(), nil
}

func (e *Engine) load(id uint64) (*Stream, error) {
	stream, ok, err := e.state.StreamGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || stream == nil {
		return nil, ErrStreamNotFound
	}
	return stream, nil
}
