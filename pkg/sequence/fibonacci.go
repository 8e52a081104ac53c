// Package sequence provides lazy, restartable integer sequences.
package sequence

import (
	"iter"
	"math/big"
)

// Fibonacci yields 0, 1, 1, 2, 3, 5... on successive calls to Next.
// Values are arbitrary precision and the sequence never ends.
// A Fibonacci is not safe for concurrent use.
type Fibonacci struct {
	a, b *big.Int
}

func NewFibonacci() *Fibonacci {
	f := &Fibonacci{}
	f.Reset()
	return f
}

// Reset rewinds the sequence to its first value.
func (f *Fibonacci) Reset() {
	f.a = big.NewInt(0)
	f.b = big.NewInt(1)
}

// Next returns the current value and advances. The returned value is owned by the caller.
func (f *Fibonacci) Next() *big.Int {
	out := new(big.Int).Set(f.a)
	f.a.Add(f.a, f.b)
	f.a, f.b = f.b, f.a
	return out
}

// Take returns the next n values.
func (f *Fibonacci) Take(n int) []*big.Int {
	if n <= 0 {
		return nil
	}
	values := make([]*big.Int, 0, n)
	for i := 0; i < n; i++ {
		values = append(values, f.Next())
	}
	return values
}

// All iterates over a fresh sequence from 0, independent of f's position.
func All() iter.Seq[*big.Int] {
	return func(yield func(*big.Int) bool) {
		f := NewFibonacci()
		for {
			if !yield(f.Next()) {
				return
			}
		}
	}
}
