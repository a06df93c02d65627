package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/appforge-labs/appforge/internal/audit"
	"github.com/appforge-labs/appforge/internal/codec"
	"github.com/appforge-labs/appforge/internal/domain"
	"github.com/appforge-labs/appforge/internal/encode"
	"github.com/appforge-labs/appforge/internal/genai"
	"github.com/appforge-labs/appforge/internal/prompt"
	"github.com/appforge-labs/appforge/internal/store"
)

// Session is the ephemeral record of exactly one in-flight generation
// attempt. It is created on submit and discarded on success or failure;
// it is never persisted.
type Session struct {
	Prompt    string
	FileName  string
	Locale    domain.Locale
	StartedAt time.Time
}

// SubmitRequest carries one user generation trigger.
type SubmitRequest struct {
	Prompt   string
	FileName string
	File     io.Reader // nil when the trigger is text-only
	Locale   domain.Locale
}

// StateEvent is a state-change notification pushed to preview subscribers.
type StateEvent struct {
	Phase      Phase  `json:"phase"`
	CreationID string `json:"creation_id,omitempty"`
	Name       string `json:"name,omitempty"`
	Notice     string `json:"notice,omitempty"`
}

// Orchestrator owns the machine state, the ephemeral session and the
// displayed-creation reference. All mutations of the creation collection
// funnel through it into the store.
type Orchestrator struct {
	mu      sync.Mutex
	state   State
	session *Session

	store   *store.Store
	gen     genai.Generator
	encoder *encode.Encoder
	audit   *audit.Log
	logger  *slog.Logger

	subMu   sync.RWMutex
	subs    map[int]chan StateEvent
	nextSub int
}

// New creates an orchestrator in the Idle state. auditLog may be nil.
func New(st *store.Store, gen genai.Generator, encoder *encode.Encoder, auditLog *audit.Log, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if encoder == nil {
		encoder = encode.NewEncoder(0)
	}
	return &Orchestrator{
		state:   State{Phase: PhaseIdle},
		store:   st,
		gen:     gen,
		encoder: encoder,
		audit:   auditLog,
		logger:  logger,
		subs:    make(map[int]chan StateEvent),
	}
}

// CurrentState returns a snapshot of the machine state.
func (o *Orchestrator) CurrentState() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Submit runs one generation attempt: encode the file if present, compose
// the prompt, call the backend, mint and store the creation. At most one
// attempt may be in flight; a second submit is rejected, not queued.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) (*domain.Creation, error) {
	o.mu.Lock()
	next, err := Apply(o.state, Event{Kind: EventSubmit})
	if err != nil {
		o.mu.Unlock()
		return nil, err
	}
	o.state = next
	o.session = &Session{
		Prompt:    req.Prompt,
		FileName:  req.FileName,
		Locale:    req.Locale,
		StartedAt: time.Now(),
	}
	o.mu.Unlock()
	o.publish(StateEvent{Phase: PhaseGenerating})

	creation, err := o.run(ctx, req)
	if err != nil {
		o.fail(req.Locale, err)
		return nil, err
	}

	o.store.Insert(ctx, creation)

	o.mu.Lock()
	// Reset, select and import are all rejected while generating, so the
	// machine is still in PhaseGenerating here and the transition holds.
	o.state, _ = Apply(o.state, Event{Kind: EventSuccess, Creation: creation})
	o.session = nil
	o.mu.Unlock()

	o.publish(StateEvent{Phase: PhaseActive, CreationID: creation.ID, Name: creation.Name})
	return creation, nil
}

// run performs the suspension chain of a generation attempt. It never
// touches the machine state.
func (o *Orchestrator) run(ctx context.Context, req SubmitRequest) (*domain.Creation, error) {
	var artifact *encode.Artifact
	if req.File != nil {
		a, err := o.encoder.EncodeFile(req.FileName, req.File)
		if err != nil {
			return nil, err
		}
		artifact = a
	}

	composed := prompt.Compose(req.Prompt, artifact != nil, req.Locale)

	genReq := genai.Request{Prompt: composed, Locale: req.Locale}
	if artifact != nil {
		genReq.Inline = &genai.InlineData{MIMEType: artifact.MIMEType, Data: artifact.Data}
	}

	start := time.Now()
	document, err := o.gen.Generate(ctx, genReq)
	o.recordAttempt(req, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	creation := &domain.Creation{
		ID:        domain.NewID(),
		Name:      creationName(req, artifact),
		Document:  document,
		CreatedAt: time.Now(),
	}
	if artifact != nil {
		creation.SourceImage = &domain.SourceImage{
			MIMEType: artifact.MIMEType,
			Data:     artifact.Data,
		}
	}
	return creation, nil
}

// Import accepts a portable document, bypassing the generation path
// entirely. The imported creation is displayed immediately and merged into
// the store; an invalid document leaves the state unchanged.
func (o *Orchestrator) Import(ctx context.Context, raw []byte) (*domain.Creation, error) {
	creation, err := codec.Import(raw)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	next, err := Apply(o.state, Event{Kind: EventImport, Creation: creation})
	if err != nil {
		o.mu.Unlock()
		return nil, err
	}
	o.state = next
	o.mu.Unlock()

	o.store.Insert(ctx, creation)
	o.publish(StateEvent{Phase: PhaseActive, CreationID: creation.ID, Name: creation.Name})
	return creation, nil
}

// Select switches the displayed creation without mutating the store.
func (o *Orchestrator) Select(id string) (*domain.Creation, error) {
	creation := o.store.Get(id)
	if creation == nil {
		return nil, ErrUnknownCreation
	}

	o.mu.Lock()
	next, err := Apply(o.state, Event{Kind: EventSelect, Creation: creation})
	if err != nil {
		o.mu.Unlock()
		return nil, err
	}
	o.state = next
	o.mu.Unlock()

	o.publish(StateEvent{Phase: PhaseActive, CreationID: creation.ID, Name: creation.Name})
	return creation, nil
}

// Reset clears the displayed creation and returns to Idle.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	next, err := Apply(o.state, Event{Kind: EventReset})
	if err != nil {
		o.mu.Unlock()
		return err
	}
	o.state = next
	o.mu.Unlock()

	o.publish(StateEvent{Phase: PhaseIdle})
	return nil
}

// fail discards the in-flight session and reverts to Idle. The store is
// never touched: no partial creation is ever persisted.
func (o *Orchestrator) fail(locale domain.Locale, cause error) {
	o.mu.Lock()
	o.state, _ = Apply(o.state, Event{Kind: EventFailure})
	o.session = nil
	o.mu.Unlock()

	o.logger.Error("Generation attempt failed", "error", cause)
	o.publish(StateEvent{Phase: PhaseIdle, Notice: FailureNotice(locale, cause)})
}

func (o *Orchestrator) recordAttempt(req SubmitRequest, d time.Duration, genErr error) {
	ev := audit.Event{
		Prompt:     req.Prompt,
		FileName:   req.FileName,
		Locale:     string(req.Locale),
		Outcome:    "success",
		DurationMs: d.Milliseconds(),
	}
	if genErr != nil {
		ev.Outcome = "failure"
		ev.Error = genErr.Error()
	}
	o.audit.Record(ev)
}

func creationName(req SubmitRequest, artifact *encode.Artifact) string {
	if artifact != nil {
		return domain.NameFromFile(artifact.Name, req.Locale)
	}
	return domain.NameFromPrompt(req.Prompt, req.Locale)
}

// Subscribe registers a state feed subscriber. The returned channel is
// closed by Unsubscribe. Slow subscribers drop events instead of blocking
// the generation path.
func (o *Orchestrator) Subscribe() (int, <-chan StateEvent) {
	o.subMu.Lock()
	defer o.subMu.Unlock()
	id := o.nextSub
	o.nextSub++
	ch := make(chan StateEvent, 16)
	o.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (o *Orchestrator) Unsubscribe(id int) {
	o.subMu.Lock()
	defer o.subMu.Unlock()
	if ch, ok := o.subs[id]; ok {
		delete(o.subs, id)
		close(ch)
	}
}

func (o *Orchestrator) publish(ev StateEvent) {
	o.subMu.RLock()
	defer o.subMu.RUnlock()
	for id, ch := range o.subs {
		select {
		case ch <- ev:
		default:
			o.logger.Debug("Dropping state event for slow subscriber", "subscriber", id)
		}
	}
}
