package tiebreak

import (
	"math/rand/v2"
	"sync"
)

// Picker chooses an index in [0, n) for a coin toss. n is always >= 1.
type Picker interface {
	Pick(n int) int
}

type globalPicker struct{}

func (globalPicker) Pick(n int) int {
	return rand.IntN(n)
}

// NewPicker returns a picker backed by the runtime's random source.
func NewPicker() Picker {
	return globalPicker{}
}

// SeededPicker is a reproducible picker. Two pickers built from the same
// seed return the same sequence.
type SeededPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSeededPicker(seed uint64) *SeededPicker {
	return &SeededPicker{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *SeededPicker) Pick(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.IntN(n)
}

// PickerFunc adapts a function to Picker.
type PickerFunc func(n int) int

func (f PickerFunc) Pick(n int) int {
	return f(n)
}
