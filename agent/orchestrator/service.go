// Package orchestrator drives one customer message through the full turn:
// validate, load session, route intent, gather evidence, compose, gate,
// record. Turns for the same customer run strictly one at a time; a message
// arriving while one is queued supersedes the queued one.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"

	composerx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/composer"
	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
	escalationx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/escalation"
	guardx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/guard"
	nodex "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/nodes"
	"github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/observability"
	recorderx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/recorder"
	statex "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/state"
)

var (
	ErrInvalidCustomer = nodex.ErrInvalidCustomer
	ErrInvalidMessage  = nodex.ErrInvalidMessage
)

type Orchestrator struct {
	store     statex.Store
	vision    contractx.VisionOracle
	retriever contractx.Retriever
	composer  *composerx.Composer
	gate      *escalationx.Gate
	recorder  *recorderx.Recorder
	guard     *guardx.Controller
	metrics   *observability.Metrics

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]
	lanes       *laneSet

	now func() time.Time
}

type Option func(*Orchestrator)

func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithNow(fn func() time.Time) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.now = fn
		}
	}
}

func New(
	store statex.Store,
	vision contractx.VisionOracle,
	retriever contractx.Retriever,
	composer *composerx.Composer,
	gate *escalationx.Gate,
	recorder *recorderx.Recorder,
	guard *guardx.Controller,
	opts ...Option,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if vision == nil {
		return nil, errors.New("vision oracle is required")
	}
	if retriever == nil {
		return nil, errors.New("retriever is required")
	}
	if composer == nil {
		return nil, errors.New("composer is required")
	}
	if gate == nil {
		return nil, errors.New("escalation gate is required")
	}
	if recorder == nil {
		return nil, errors.New("recorder is required")
	}
	if guard == nil {
		guard = guardx.New(guardx.Config{})
	}

	o := &Orchestrator{
		store:     store,
		vision:    vision,
		retriever: retriever,
		composer:  composer,
		gate:      gate,
		recorder:  recorder,
		guard:     guard,
		lanes:     newLaneSet(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleMessage processes one inbound message end to end and returns the
// reply to deliver. Calls for the same customer serialize; a call whose
// message is superseded while queued returns the acknowledgement reply
// without running the turn.
func (o *Orchestrator) HandleMessage(ctx context.Context, msg contractx.Message) (contractx.Reply, error) {
	if err := ctx.Err(); err != nil {
		return contractx.Reply{}, err
	}

	// Validate before claiming a lane: a message with no customer must not
	// occupy (or key) a lane.
	st, err := nodex.ValidateRequest(nodex.GraphInput{Message: msg}, o.now)
	if err != nil {
		return contractx.Reply{}, err
	}
	msg = st.Message

	ln := o.lanes.lane(msg.CustomerID)
	w, runNow := ln.claim()
	if !runNow {
		select {
		case <-w.start:
		case <-ctx.Done():
			ln.abandon(w)
			return contractx.Reply{}, ctx.Err()
		}
		if w.superseded {
			return o.acknowledgeSuperseded(ctx, msg), nil
		}
	}
	defer ln.release()

	started := o.now()
	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{Message: msg})
	if err != nil {
		return contractx.Reply{}, err
	}

	if o.metrics != nil {
		o.metrics.TurnsProcessed.WithLabelValues(string(out.Intent)).Inc()
		o.metrics.ObserveTurnLatency(o.now().Sub(started))
		if out.Escalated {
			o.metrics.Escalations.WithLabelValues(out.EscalationCode).Inc()
		}
	}
	return out.Reply, nil
}

// acknowledgeSuperseded resolves a replaced message: a fixed acknowledgement,
// an analytics record, no session history entry.
func (o *Orchestrator) acknowledgeSuperseded(ctx context.Context, msg contractx.Message) contractx.Reply {
	if o.metrics != nil {
		o.metrics.SupersededMsgs.Inc()
	}

	reply := contractx.Reply{Text: composerx.SupersededAck}
	o.recorder.Record(ctx, recorderx.Turn{
		CustomerID:  msg.CustomerID,
		Message:     msg,
		Reply:       reply,
		Intent:      contractx.IntentUnclear,
		Confidence:  1.0,
		StartedAt:   o.now(),
		SkipHistory: true,
	})
	return reply
}
