package formula

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eval(t *testing.T, src string, vars map[string]float64) float64 {
	t.Helper()
	f, err := Parse(src)
	require.NoError(t, err)
	require.NotNil(t, f)
	v, err := f.Eval(vars)
	require.NoError(t, err)
	return v
}

func TestArithmetic(t *testing.T) {
	vars := map[string]float64{"k": 3, "c": 5, "a": 2, "b": 0.5}

	tests := []struct {
		src  string
		want float64
	}{
		{"k", 3},
		{"k + c * 2", 13},
		{"(k + c) * 2", 16},
		{"c - k - 1", 1},
		{"c / 2", 2.5},
		{"2 ** 3 ** 2", 512},
		{"-2 ** 2", -4},
		{"(-2) ** 2", 4},
		{"k + a/2 + b", 4.5},
		{"max(k, c, a)", 5},
		{"min(k, c)", 3},
		{"sqrt(16) + floor(2.7) + ceil(2.1)", 9},
		{"log(e)", 1},
		{"log(8, 2)", 3},
		{"abs(-k)", 3},
		{"pow(2, 10)", 1024},
		{"1.5e2", 150},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.InDelta(t, tt.want, eval(t, tt.src, vars), 1e-9)
		})
	}
}

func TestEmptyFormula(t *testing.T) {
	f, err := Parse("   ")
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestRejectedFormulas(t *testing.T) {
	for _, src := range []string{
		"k +",
		"__import__('os')",
		"x + 1",
		"open(1)",
		"k; c",
		"(k + c",
		"max()",
		"sqrt(1, 2)",
		"k[0]",
		"k == c",
	} {
		t.Run(src, func(t *testing.T) {
			assert.ErrorIs(t, Validate(src), ErrInvalidFormula)
		})
	}
}

func TestEvaluationErrors(t *testing.T) {
	f, err := Parse("k / a")
	require.NoError(t, err)
	_, err = f.Eval(map[string]float64{"k": 1, "a": 0})
	assert.ErrorIs(t, err, ErrEvaluation)

	f, err = Parse("sqrt(k)")
	require.NoError(t, err)
	_, err = f.Eval(map[string]float64{"k": -1})
	assert.ErrorIs(t, err, ErrEvaluation)
}

func TestFunctionsAreWhitelisted(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{"min", "max", "sqrt", "log", "exp", "floor", "ceil", "abs", "round", "pow"},
		Functions(),
	)
	assert.False(t, math.IsNaN(eval(t, "exp(0)", nil)))
}
