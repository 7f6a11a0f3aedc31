package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vx/internal/ir"
)

func TestFixedRunIDGenerator(t *testing.T) {
	gen := NewFixedRunIDGenerator("run-123")
	assert.Equal(t, "run-123", gen.Generate())
	assert.Equal(t, "run-123", gen.Generate())

	assert.Equal(t, "test-run-default", NewFixedRunIDGenerator("").Generate())
}

func TestSequentialRunIDGenerator(t *testing.T) {
	gen := NewSequentialRunIDGenerator("run")
	assert.Equal(t, "run-1", gen.Generate())
	assert.Equal(t, "run-2", gen.Generate())

	gen.Reset()
	assert.Equal(t, "run-1", gen.Generate())
}

func TestSequentialRunIDGenerator_ThreadSafe(t *testing.T) {
	gen := NewSequentialRunIDGenerator("p")
	seen := sync.Map{}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, dup := seen.LoadOrStore(gen.Generate(), true)
				assert.False(t, dup)
			}
		}()
	}
	wg.Wait()
}

func TestEval(t *testing.T) {
	env := map[string]int64{}

	v, err := Eval(ir.Add(ir.IntegerLiteral(1), ir.Mul(ir.IntegerLiteral(2), ir.IntegerLiteral(3))), env)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	v, err = Eval(ir.Store{Target: "x", Value: ir.Sub(ir.IntegerLiteral(10), ir.IntegerLiteral(4))}, env)
	require.NoError(t, err)
	assert.Equal(t, int64(6), v)
	assert.Equal(t, int64(6), env["x"])

	v, err = Eval(ir.Div(ir.Identifier("x"), ir.IntegerLiteral(4)), env)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	_, err = Eval(ir.Div(ir.IntegerLiteral(1), ir.IntegerLiteral(0)), env)
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = Eval(ir.Identifier("missing"), env)
	assert.Error(t, err)

	_, err = Eval(ir.FloatLiteral(1.5), env)
	assert.Error(t, err)
}

func TestEvalInfix(t *testing.T) {
	tests := map[string]int64{
		"1 + 2 * 3":       7,
		"1 * 2 + 3":       5,
		"10 - 4 - 3":      3,
		"100 / 10 / 5":    2,
		"(1 + 2) * 3":     9,
		"2 * (3 + 4) - 1": 13,
		"1_000 / 10":      100,
	}
	for src, want := range tests {
		got, err := EvalInfix(src)
		require.NoError(t, err, src)
		assert.Equal(t, want, got, src)
	}

	for _, bad := range []string{"1 +", "(1", "1 2", "", "1 / 0"} {
		_, err := EvalInfix(bad)
		assert.Error(t, err, bad)
	}
}
