package bind

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Policy decides what a failing proxy does to the rest of the run.
type Policy int

const (
	// PolicyIsolate drops the failing proxy and keeps binding the others.
	PolicyIsolate Policy = iota

	// PolicyAbort stops at the first failing proxy.
	PolicyAbort
)

// ParsePolicy maps the configuration spelling of a policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "isolate":
		return PolicyIsolate, nil
	case "abort":
		return PolicyAbort, nil
	}
	return 0, fmt.Errorf("unknown error policy %q (want isolate or abort)", s)
}

func (p Policy) String() string {
	if p == PolicyAbort {
		return "abort"
	}
	return "isolate"
}

// Engine binds proxies against a Reflector.
type Engine struct {
	refl   Reflector
	log    logrus.FieldLogger
	policy Policy
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

// WithPolicy sets the error policy.
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// New creates an engine.
func New(refl Reflector, opts ...Option) *Engine {
	e := &Engine{refl: refl}
	for _, o := range opts {
		o(e)
	}
	if e.log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		e.log = l
	}
	return e
}

// Outcome is the result of one proxy.
type Outcome struct {
	Proxy *Proxy
	Cells int
	Err   error
}

// Report collects the outcomes of a run in proxy order.
type Report struct {
	Outcomes []Outcome
}

// Failed returns the outcomes that carry an error.
func (r *Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// Err joins the errors of all failed proxies, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, o := range r.Failed() {
		errs = append(errs, o.Err)
	}
	return errors.Join(errs...)
}

// Bind runs one pass for p, emitting into out. On error out may have seen
// a partial proxy; Run uses a Recorder so that never reaches real output.
func (e *Engine) Bind(p *Proxy, out Emitter) error {
	return newPass(p, e.refl, out, e.log).run()
}

// Run binds proxies in order. For every proxy that binds completely, sink
// is asked for the emitter the recorded proxy is replayed into. A proxy
// that fails emits nothing.
//
// Under PolicyAbort the first binding error is returned together with the
// report so far. Under PolicyIsolate binding errors are only reported.
// Errors from sink emitters are always returned.
func (e *Engine) Run(proxies []*Proxy, sink func(*Proxy) Emitter) (*Report, error) {
	report := &Report{}
	for _, p := range proxies {
		rec := &Recorder{}
		if err := e.Bind(p, rec); err != nil {
			report.Outcomes = append(report.Outcomes, Outcome{Proxy: p, Err: err})
			e.log.WithFields(logrus.Fields{
				"proxy":  p.Name,
				"target": p.Target.String(),
			}).Warn(err)
			if e.policy == PolicyAbort {
				return report, err
			}
			continue
		}

		if err := rec.Replay(sink(p)); err != nil {
			return report, fmt.Errorf("emit %s: %w", p.Name, err)
		}
		report.Outcomes = append(report.Outcomes, Outcome{Proxy: p, Cells: len(rec.Cells)})
		e.log.WithFields(logrus.Fields{
			"proxy": p.Name,
			"cells": len(rec.Cells),
		}).Info("bound")
	}
	return report, nil
}
