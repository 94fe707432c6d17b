package intercept

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wrtcore/fuelrt/errs"
)

func TestNoOp_PassesThrough(t *testing.T) {
	s := NoOp()
	args := []CoreValue{1, 2, 3}

	out, err := s.BeforeCall(CallContext{Function: "f"}, args)
	require.NoError(t, err)
	require.Equal(t, args, out)

	results, err := s.AfterCall(CallContext{Function: "f"}, args, []CoreValue{9})
	require.NoError(t, err)
	require.Equal(t, []CoreValue{9}, results)
}

func TestFirewall_DeniesListedFunction(t *testing.T) {
	fw := NewFirewall("wasi:filesystem/open", "wasi:sockets/connect")

	_, err := fw.BeforeCall(CallContext{Function: "wasi:sockets/connect"}, nil)
	require.Error(t, err)
	var coded *errs.CodedError
	require.ErrorAs(t, err, &coded)
	require.Equal(t, errs.CodeAccessDenied, coded.Code)

	out, err := fw.BeforeCall(CallContext{Function: "wasi:clocks/now"}, []CoreValue{1})
	require.NoError(t, err)
	require.Equal(t, []CoreValue{1}, out)
}

func TestMetering_ChargesAndEnforces(t *testing.T) {
	m := NewMetering(2 * HostCallCost)

	_, err := m.BeforeCall(CallContext{Function: "a"}, nil)
	require.NoError(t, err)
	_, err = m.BeforeCall(CallContext{Function: "b"}, nil)
	require.NoError(t, err)
	require.Equal(t, 2*HostCallCost, m.Spent())
	require.Equal(t, uint64(2), m.Calls())

	_, err = m.BeforeCall(CallContext{Function: "c"}, nil)
	require.Error(t, err)
	var coded *errs.CodedError
	require.ErrorAs(t, err, &coded)
	require.Equal(t, errs.CodeFuelExhausted, coded.Code)
	require.Equal(t, uint64(2), m.Calls()) // refusal not counted
}

func TestMetering_ZeroBudgetCountsWithoutEnforcing(t *testing.T) {
	m := NewMetering(0)
	for i := 0; i < 100; i++ {
		_, err := m.BeforeCall(CallContext{Function: "f"}, nil)
		require.NoError(t, err)
	}
	require.Equal(t, uint64(100), m.Calls())
}

type rewriteStrategy struct {
	before func(args []CoreValue) []CoreValue
}

func (r rewriteStrategy) BeforeCall(_ CallContext, args []CoreValue) ([]CoreValue, error) {
	return r.before(args), nil
}

func (r rewriteStrategy) AfterCall(_ CallContext, _, results []CoreValue) ([]CoreValue, error) {
	return results, nil
}

func TestChain_OrderAndFirstRefusalWins(t *testing.T) {
	doubler := rewriteStrategy{before: func(args []CoreValue) []CoreValue {
		out := make([]CoreValue, len(args))
		for i, v := range args {
			out[i] = v * 2
		}
		return out
	}}
	fw := NewFirewall("blocked")
	chain := NewChain(doubler, fw, nil)

	out, err := chain.BeforeCall(CallContext{Function: "ok"}, []CoreValue{3})
	require.NoError(t, err)
	require.Equal(t, []CoreValue{6}, out)

	_, err = chain.BeforeCall(CallContext{Function: "blocked"}, []CoreValue{3})
	require.Error(t, err)
}
