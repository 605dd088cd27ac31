package mentorship

import (
	"context"
	"fmt"
	"time"

	"github.com/edumarket/edumarket/auth"
)

const (
	// ActivityEventRequestCreated fires when a student opens a request
	ActivityEventRequestCreated auth.ActivityEventType = "mentorship.request.created"
	// ActivityEventRequestDecided fires on every accepted/rejected transition
	ActivityEventRequestDecided auth.ActivityEventType = "mentorship.request.decided"
)

// TransitionMetadata captures extra context for a transition
type TransitionMetadata struct {
	Reason   string
	Metadata map[string]any
}

// TransitionContext is passed into hooks for additional processing
type TransitionContext struct {
	Actor   auth.ActorRef
	Request *StudentRequest
	From    RequestStatus
	To      RequestStatus
	Meta    TransitionMetadata
}

// TransitionHook is executed before or after a transition
type TransitionHook func(ctx context.Context, tc TransitionContext) error

// TransitionHookPhase identifies whether a hook ran before or after persistence
type TransitionHookPhase string

const (
	HookPhaseBefore TransitionHookPhase = "before_transition"
	HookPhaseAfter  TransitionHookPhase = "after_transition"
)

// TransitionOption customizes a single transition
type TransitionOption func(*transitionOptions)

// HookErrorHandler handles errors surfaced by transition hooks
type HookErrorHandler func(ctx context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error

// RequestStateMachine defines lifecycle operations for mentorship requests
type RequestStateMachine interface {
	Transition(ctx context.Context, actor auth.ActorRef, request *StudentRequest, target RequestStatus, opts ...TransitionOption) (*StudentRequest, error)
	CurrentStatus(request *StudentRequest) RequestStatus
}

// StateMachineOption customizes state machine construction
type StateMachineOption func(*requestStateMachine)

// WithStateMachineClock injects a custom clock (useful for tests)
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *requestStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStateMachineActivitySink sets the sink used to publish decision events
func WithStateMachineActivitySink(sink auth.ActivitySink) StateMachineOption {
	return func(sm *requestStateMachine) {
		if sink != nil {
			sm.activitySink = sink
		}
	}
}

// WithStateMachineHookErrorHandler overrides how hook failures are propagated
func WithStateMachineHookErrorHandler(handler HookErrorHandler) StateMachineOption {
	return func(sm *requestStateMachine) {
		if handler != nil {
			sm.hookErrorHandler = handler
		}
	}
}

// WithStateMachineLogger overrides the logger used for sink failures
func WithStateMachineLogger(logger auth.Logger) StateMachineOption {
	return func(sm *requestStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// WithTransitionReason sets the human-readable reason for the transition
func WithTransitionReason(reason string) TransitionOption {
	return func(opts *transitionOptions) {
		opts.metadata.Reason = reason
	}
}

// WithTransitionMetadata merges metadata into the transition context
func WithTransitionMetadata(metadata map[string]any) TransitionOption {
	return func(opts *transitionOptions) {
		if len(metadata) == 0 {
			return
		}
		if opts.metadata.Metadata == nil {
			opts.metadata.Metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			opts.metadata.Metadata[k] = v
		}
	}
}

// WithBeforeTransitionHook adds a hook executed before the status update
func WithBeforeTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.beforeHooks = append(opts.beforeHooks, h)
		}
	}
}

// WithAfterTransitionHook adds a hook executed after the status update succeeds
func WithAfterTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.afterHooks = append(opts.afterHooks, h)
		}
	}
}

// NewRequestStateMachine returns the default implementation backed by the
// provided repository
func NewRequestStateMachine(requests StudentRequests, opts ...StateMachineOption) RequestStateMachine {
	sm := &requestStateMachine{
		requests: requests,
		transitions: map[RequestStatus]map[RequestStatus]struct{}{
			StatusPending: {
				StatusAccepted: {},
				StatusRejected: {},
			},
		},
		now:          time.Now,
		activitySink: auth.ActivitySinkFunc(nil),
		logger:       auth.DefaultLogger(),
		hookErrorHandler: func(ctx context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error {
			return defaultHookErrorHandler(ctx, phase, err, tc)
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

type requestStateMachine struct {
	requests         StudentRequests
	transitions      map[RequestStatus]map[RequestStatus]struct{}
	now              func() time.Time
	activitySink     auth.ActivitySink
	logger           auth.Logger
	hookErrorHandler HookErrorHandler
}

type transitionOptions struct {
	metadata    TransitionMetadata
	beforeHooks []TransitionHook
	afterHooks  []TransitionHook
}

func (o *transitionOptions) cloneMetadata() TransitionMetadata {
	var cloned map[string]any
	if len(o.metadata.Metadata) > 0 {
		cloned = make(map[string]any, len(o.metadata.Metadata))
		for k, v := range o.metadata.Metadata {
			cloned[k] = v
		}
	}

	return TransitionMetadata{
		Reason:   o.metadata.Reason,
		Metadata: cloned,
	}
}

func (sm *requestStateMachine) Transition(ctx context.Context, actor auth.ActorRef, request *StudentRequest, target RequestStatus, opts ...TransitionOption) (*StudentRequest, error) {
	if request == nil {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"target": target,
			"reason": "request is nil",
		})
	}

	request.EnsureStatus()
	from := request.Status

	if target == "" {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"reason": "target status is empty",
		})
	}

	if from == target {
		return request, nil
	}

	if from.IsTerminal() {
		return nil, ErrTerminalState.WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	if !sm.canTransition(from, target) {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	options := sm.buildTransitionOptions(opts...)
	ctxData := TransitionContext{
		Actor:   actor,
		Request: request,
		From:    from,
		To:      target,
		Meta:    options.cloneMetadata(),
	}

	if err := sm.runHooks(ctx, options.beforeHooks, ctxData, HookPhaseBefore); err != nil {
		return nil, err
	}

	updated, err := sm.requests.UpdateStatus(ctx, request.ID, target)
	if err != nil {
		return nil, err
	}

	if updated != nil && updated.Status != "" {
		request.Status = updated.Status
	} else {
		request.Status = target
	}

	if err := sm.runHooks(ctx, options.afterHooks, ctxData, HookPhaseAfter); err != nil {
		return nil, err
	}

	sm.recordActivity(ctx, auth.ActivityEvent{
		EventType: ActivityEventRequestDecided,
		Actor:     actor,
		UserID:    request.StudentID.String(),
		Metadata: sm.transitionMetadata(ctxData.Meta, map[string]any{
			"request_id": request.ID.String(),
			"mentor_id":  request.MentorID.String(),
			"from":       string(from),
			"to":         string(target),
		}),
	})

	return request, nil
}

func (sm *requestStateMachine) CurrentStatus(request *StudentRequest) RequestStatus {
	if request == nil {
		return ""
	}
	request.EnsureStatus()
	return request.Status
}

func (sm *requestStateMachine) canTransition(from, to RequestStatus) bool {
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (sm *requestStateMachine) buildTransitionOptions(opts ...TransitionOption) *transitionOptions {
	options := &transitionOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return options
}

func (sm *requestStateMachine) runHooks(ctx context.Context, hooks []TransitionHook, data TransitionContext, phase TransitionHookPhase) error {
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, data); err != nil {
			if sm.hookErrorHandler == nil {
				return err
			}
			return sm.hookErrorHandler(ctx, phase, err, data)
		}
	}
	return nil
}

func defaultHookErrorHandler(_ context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error {
	panic(fmt.Sprintf(
		"mentorship: %s transition hook failed: %v\nRequestID: %s from=%s to=%s reason=%s\nProvide mentorship.WithStateMachineHookErrorHandler to customize error handling in production.",
		phase,
		err,
		tc.Request.ID,
		tc.From,
		tc.To,
		tc.Meta.Reason,
	))
}

func (sm *requestStateMachine) recordActivity(ctx context.Context, event auth.ActivityEvent) {
	if event.Actor == (auth.ActorRef{}) {
		event.Actor = auth.ActorRef{Type: "system"}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = sm.now()
	}

	if sm.activitySink == nil {
		return
	}

	if err := sm.activitySink.Record(ctx, event); err != nil {
		sm.logger.Warn("request state machine activity sink error: %v", err)
	}
}

func (sm *requestStateMachine) transitionMetadata(meta TransitionMetadata, base map[string]any) map[string]any {
	if meta.Reason != "" {
		base["reason"] = meta.Reason
	}
	for k, v := range meta.Metadata {
		base[k] = v
	}
	return base
}
