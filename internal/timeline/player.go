package timeline

import "math"

// Player tracks the continuous stage index driven by ticks and key presses.
type Player struct {
	index   float64
	count   int
	step    float64
	navStep float64
	playing bool
}

// NewPlayer returns a paused player at the first stage.
func NewPlayer(count int, step, navStep float64) *Player {
	if navStep <= 0 {
		navStep = 1
	}
	return &Player{count: count, step: step, navStep: navStep}
}

// Index returns the current continuous stage index.
func (p *Player) Index() float64 {
	return p.index
}

// Count returns the number of stages.
func (p *Player) Count() int {
	return p.count
}

// Playing reports whether ticks advance the index.
func (p *Player) Playing() bool {
	return p.playing
}

// Play starts advancing on ticks.
func (p *Player) Play() {
	p.playing = p.count > 0
}

// Pause stops advancing on ticks.
func (p *Player) Pause() {
	p.playing = false
}

// Toggle flips between playing and paused and reports the new state.
func (p *Player) Toggle() bool {
	if p.playing {
		p.Pause()
	} else {
		p.Play()
	}
	return p.playing
}

// Advance moves one tick forward, looping back to the first stage after the last.
func (p *Player) Advance() {
	if !p.playing || p.count == 0 {
		return
	}
	p.index = math.Mod(p.index+p.step, float64(p.count))
}

// First jumps to the first stage.
func (p *Player) First() {
	p.index = 0
}

// Last jumps to the last stage.
func (p *Player) Last() {
	p.index = p.clamp(float64(p.count - 1))
}

// Forward steps towards the last stage.
func (p *Player) Forward() {
	p.index = p.clamp(p.index + p.navStep)
}

// Backward steps towards the first stage.
func (p *Player) Backward() {
	p.index = p.clamp(p.index - p.navStep)
}

// Seek moves to an arbitrary index within the tour.
func (p *Player) Seek(at float64) {
	p.index = p.clamp(at)
}

func (p *Player) clamp(v float64) float64 {
	last := float64(p.count - 1)
	if v > last {
		v = last
	}
	if v < 0 {
		v = 0
	}
	return v
}
