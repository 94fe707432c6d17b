// Package intercept defines the strategy boundary the core drives around
// every host-function crossing: a BeforeCall hook that may rewrite or
// refuse the arguments, and an AfterCall hook that may rewrite or refuse
// the results. Host-function implementations themselves live outside the
// core; this package only owns the seam they are called through.
package intercept

import (
	"github.com/wrtcore/fuelrt/errs"
	"github.com/wrtcore/fuelrt/fuel"
)

// CoreValue is one lowered core value crossing the host boundary: the
// canonical ABI lowers every component-level value to i32/i64/f32/f64
// before the crossing, all of which fit a 64-bit pattern.
type CoreValue uint64

// CallContext identifies one host-boundary crossing.
type CallContext struct {
	Source   fuel.ComponentID
	Target   fuel.ComponentID
	Function string
}

// Strategy is invoked around every host-boundary crossing. BeforeCall
// may rewrite the outgoing arguments or refuse the call entirely;
// AfterCall may rewrite the returned values or turn a success into a
// failure. Returning the input slice unchanged is the common case and
// carries no copy.
type Strategy interface {
	BeforeCall(ctx CallContext, args []CoreValue) ([]CoreValue, error)
	AfterCall(ctx CallContext, args, results []CoreValue) ([]CoreValue, error)
}

// noOpStrategy passes everything through untouched.
type noOpStrategy struct{}

func (noOpStrategy) BeforeCall(_ CallContext, args []CoreValue) ([]CoreValue, error) {
	return args, nil
}

func (noOpStrategy) AfterCall(_ CallContext, _, results []CoreValue) ([]CoreValue, error) {
	return results, nil
}

// NoOp returns the pass-through Strategy, the default when the host
// installs nothing.
func NoOp() Strategy { return noOpStrategy{} }

// Chain composes strategies middleware-style: BeforeCall runs first to
// last, AfterCall runs last to first, and the first refusal wins.
type Chain struct {
	strategies []Strategy
}

// NewChain builds a Chain over the given strategies; nil entries are
// skipped.
func NewChain(strategies ...Strategy) *Chain {
	out := make([]Strategy, 0, len(strategies))
	for _, s := range strategies {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Chain{strategies: out}
}

func (c *Chain) BeforeCall(ctx CallContext, args []CoreValue) ([]CoreValue, error) {
	var err error
	for _, s := range c.strategies {
		if args, err = s.BeforeCall(ctx, args); err != nil {
			return nil, err
		}
	}
	return args, nil
}

func (c *Chain) AfterCall(ctx CallContext, args, results []CoreValue) ([]CoreValue, error) {
	var err error
	for i := len(c.strategies) - 1; i >= 0; i-- {
		if results, err = c.strategies[i].AfterCall(ctx, args, results); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// Firewall refuses calls to functions on its deny list with
// Capability/AccessDenied, before any argument ever reaches the host.
// The list is fixed at construction; a runtime cannot widen its own
// host surface after lock-down.
type Firewall struct {
	denied map[string]struct{}
}

// NewFirewall builds a Firewall denying exactly the named functions.
func NewFirewall(deniedFunctions ...string) *Firewall {
	denied := make(map[string]struct{}, len(deniedFunctions))
	for _, f := range deniedFunctions {
		denied[f] = struct{}{}
	}
	return &Firewall{denied: denied}
}

func (f *Firewall) BeforeCall(ctx CallContext, args []CoreValue) ([]CoreValue, error) {
	if _, blocked := f.denied[ctx.Function]; blocked {
		return nil, errs.New(errs.Capability, errs.CodeAccessDenied, "host function denied: "+ctx.Function)
	}
	return args, nil
}

func (f *Firewall) AfterCall(_ CallContext, _, results []CoreValue) ([]CoreValue, error) {
	return results, nil
}
