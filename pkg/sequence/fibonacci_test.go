package sequence

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values(ns []*big.Int) []int64 {
	var out []int64
	for _, n := range ns {
		out = append(out, n.Int64())
	}
	return out
}

func TestFibonacciFirstValues(t *testing.T) {
	f := NewFibonacci()
	assert.Equal(t, []int64{0, 1, 1, 2, 3, 5, 8, 13, 21, 34}, values(f.Take(10)))
	assert.Equal(t, int64(55), f.Next().Int64())
}

func TestFibonacciReset(t *testing.T) {
	f := NewFibonacci()
	f.Take(25)
	f.Reset()
	assert.Equal(t, []int64{0, 1, 1, 2}, values(f.Take(4)))
}

func TestFibonacciTakeNothing(t *testing.T) {
	f := NewFibonacci()
	assert.Nil(t, f.Take(0))
	assert.Nil(t, f.Take(-3))
	assert.Equal(t, int64(0), f.Next().Int64())
}

func TestFibonacciValuesAreOwned(t *testing.T) {
	f := NewFibonacci()
	first := f.Take(3)
	f.Take(10)
	assert.Equal(t, []int64{0, 1, 1}, values(first))
}

func TestFibonacciBeyondUint64(t *testing.T) {
	f := NewFibonacci()
	var last *big.Int
	for i := 0; i <= 100; i++ {
		last = f.Next()
	}
	expected, ok := new(big.Int).SetString("354224848179261915075", 10)
	require.True(t, ok)
	assert.Equal(t, 0, expected.Cmp(last), "F(100)")
}

func TestFibonacciAll(t *testing.T) {
	var got []int64
	for n := range All() {
		if len(got) == 7 {
			break
		}
		got = append(got, n.Int64())
	}
	assert.Equal(t, []int64{0, 1, 1, 2, 3, 5, 8}, got)
}
