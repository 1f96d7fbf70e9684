package service

import (
	"math/rand"
	"sync"

	"chessarena/internal/server/core"
)

// ColorPicker assigns random colours while remembering the last few picks in a
// ring buffer, so a full buffer of one colour forces the other.
type ColorPicker struct {
	mu     sync.Mutex
	rng    *rand.Rand
	recent []core.Color
	next   int
	filled int
}

func NewColorPicker(size int, src rand.Source) *ColorPicker {
	if size < 1 {
		size = 1
	}
	return &ColorPicker{
		rng:    rand.New(src),
		recent: make([]core.Color, size),
	}
}

// Pick returns white or black
func (p *ColorPicker) Pick() core.Color {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := core.ColorWhite
	if p.rng.Intn(2) == 1 {
		c = core.ColorBlack
	}
	if p.filled == len(p.recent) && p.allSame() {
		c = core.OppositeColor(p.recent[0])
	}

	p.recent[p.next] = c
	p.next = (p.next + 1) % len(p.recent)
	if p.filled < len(p.recent) {
		p.filled++
	}
	return c
}

func (p *ColorPicker) allSame() bool {
	for _, c := range p.recent[1:] {
		if c != p.recent[0] {
			return false
		}
	}
	return true
}

// Recent returns the remembered picks, oldest first
func (p *ColorPicker) Recent() []core.Color {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]core.Color, 0, p.filled)
	start := (p.next - p.filled + len(p.recent)) % len(p.recent)
	for i := 0; i < p.filled; i++ {
		out = append(out, p.recent[(start+i)%len(p.recent)])
	}
	return out
}
