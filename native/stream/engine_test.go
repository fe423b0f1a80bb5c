package stream

import (
	"errors"
	"strings"
	"testing"

	"streamledger/core/events"
	"streamledger/native/common"
)

type mockState struct {
	streams map[uint64]*Stream
	seq     uint64
}

func newMockState() *mockState {
	return &mockState{streams: make(map[uint64]*Stream)}
}

func (m *mockState) StreamGet(id uint64) (*Stream, bool, error) {
	s, ok := m.streams[id]
	if !ok {
		return nil, false, nil
	}
	return s.Clone(), true, nil
}

func (m *mockState) StreamPut(s *Stream) error {
	m.streams[s.ID] = s.Clone()
	return nil
}

func (m *mockState) NextSequence(name string) (uint64, error) {
	if name != SequenceName {
		return 0, errors.New("unexpected sequence " + name)
	}
	m.seq++
	return m.seq, nil
}

type fakeRegistry struct {
	active   map[[20]byte]bool
	credited map[[20]byte]uint64
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{active: make(map[[20]byte]bool), credited: make(map[[20]byte]uint64)}
}

func (r *fakeRegistry) RequireActive(addr [20]byte) error {
	active, ok := r.active[addr]
	if !ok {
		return common.ErrNotFound
	}
	if !active {
		return common.ErrInactive
	}
	return nil
}

func (r *fakeRegistry) CreditStreamTime(addr [20]byte, seconds uint64) error {
	r.credited[addr] += seconds
	return nil
}

type captureEmitter struct {
	types []string
}

func (c *captureEmitter) Emit(evt events.Event) {
	c.types = append(c.types, evt.EventType())
}

type harness struct {
	engine   *Engine
	state    *mockState
	registry *fakeRegistry
	emitter  *captureEmitter
	now      uint64
}

func newHarness() *harness {
	h := &harness{state: newMockState(), registry: newFakeRegistry(), emitter: &captureEmitter{}, now: 1_000}
	h.engine = NewEngine()
	h.engine.SetState(h.state)
	h.engine.SetRegistry(h.registry)
	h.engine.SetEmitter(h.emitter)
	h.engine.SetNowFunc(func() uint64 { return h.now })
	return h
}

var owner = [20]byte{0xC1}

func TestStartAssignsSequentialIDs(t *testing.T) {
	h := newHarness()
	h.registry.active[owner] = true

	first, err := h.engine.Start(owner, " Speedrun ", "", "", "games")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	second, err := h.engine.Start(owner, "Encore", "", "", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("unexpected ids %d, %d", first.ID, second.ID)
	}
	if first.Title != "Speedrun" || !first.Active || first.StartedAt != 1_000 {
		t.Fatalf("unexpected stream %+v", first)
	}
	if len(h.emitter.types) != 2 || h.emitter.types[0] != EventTypeStreamStarted {
		t.Fatalf("unexpected events %v", h.emitter.types)
	}
}

func TestStartRequiresActiveCreator(t *testing.T) {
	h := newHarness()
	if _, err := h.engine.Start(owner, "Live", "", "", ""); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
	h.registry.active[owner] = false
	if _, err := h.engine.Start(owner, "Live", "", "", ""); !errors.Is(err, ErrCreatorInactive) {
		t.Fatalf("expected ErrCreatorInactive, got %v", err)
	}
	if h.state.seq != 0 {
		t.Fatalf("sequence advanced on failure: %d", h.state.seq)
	}
}

func TestStartValidatesText(t *testing.T) {
	h := newHarness()
	h.registry.active[owner] = true
	if _, err := h.engine.Start(owner, "   ", "", "", ""); !errors.Is(err, common.ErrInvalidField) {
		t.Fatalf("expected invalid title, got %v", err)
	}
	long := strings.Repeat("x", MaxTitleLength+1)
	if _, err := h.engine.Start(owner, long, "", "", ""); !errors.Is(err, common.ErrInvalidField) {
		t.Fatalf("expected title too long, got %v", err)
	}
}

func TestEndCreditsDuration(t *testing.T) {
	h := newHarness()
	h.registry.active[owner] = true
	s, err := h.engine.Start(owner, "Live", "", "", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	h.now = 4_600

	if _, err := h.engine.End([20]byte{0xBB}, s.ID); !errors.Is(err, ErrNotStreamOwner) {
		t.Fatalf("expected ErrNotStreamOwner, got %v", err)
	}
	ended, err := h.engine.End(owner, s.ID)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if ended.Active || ended.EndedAt != 4_600 || ended.Duration() != 3_600 {
		t.Fatalf("unexpected ended stream %+v", ended)
	}
	if h.registry.credited[owner] != 3_600 {
		t.Fatalf("expected 3600 seconds credited, got %d", h.registry.credited[owner])
	}
	if _, err := h.engine.End(owner, s.ID); !errors.Is(err, ErrStreamEnded) {
		t.Fatalf("expected ErrStreamEnded, got %v", err)
	}
	if _, err := h.engine.End(owner, 42); !errors.Is(err, ErrStreamNotFound) {
		t.Fatalf("expected ErrStreamNotFound, got %v", err)
	}
}

func TestRecordViewerCountsEveryCall(t *testing.T) {
	h := newHarness()
	h.registry.active[owner] = true
	s, err := h.engine.Start(owner, "Live", "", "", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := h.engine.RecordViewer(s.ID, 10); err != nil {
			t.Fatalf("record viewer: %v", err)
		}
	}
	got, err := h.engine.Stream(s.ID)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if got.ViewerCount != 3 || got.TotalPointsAwarded != 30 {
		t.Fatalf("unexpected counters %+v", got)
	}

	if _, err := h.engine.End(owner, s.ID); err != nil {
		t.Fatalf("end: %v", err)
	}
	if _, err := h.engine.RecordViewer(s.ID, 10); !errors.Is(err, ErrStreamEnded) {
		t.Fatalf("expected ErrStreamEnded, got %v", err)
	}
}

func TestRecordViewerDetectsOverflow(t *testing.T) {
	h := newHarness()
	h.state.streams[7] = &Stream{ID: 7, Creator: owner, Active: true, TotalPointsAwarded: ^uint64(0) - 5}
	if _, err := h.engine.RecordViewer(7, 10); !errors.Is(err, ErrCounterOverflow) {
		t.Fatalf("expected ErrCounterOverflow, got %v", err)
	}
	if h.state.streams[7].ViewerCount != 0 {
		t.Fatalf("stream mutated on overflow")
	}
}
