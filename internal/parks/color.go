package parks

import "math/rand/v2"

var DefaultColors = []string{"green", "blue", "red"}

// ColorPicker assigns display colors to parks. With seed 0 the sequence
// differs between runs.
type ColorPicker struct {
	colors []string
	rng    *rand.Rand
}

func NewColorPicker(colors []string, seed uint64) *ColorPicker {
	if len(colors) == 0 {
		colors = DefaultColors
	}
	var src rand.Source
	if seed == 0 {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	} else {
		src = rand.NewPCG(seed, seed)
	}
	return &ColorPicker{colors: colors, rng: rand.New(src)}
}

func (c *ColorPicker) Pick() string {
	return c.colors[c.rng.IntN(len(c.colors))]
}
