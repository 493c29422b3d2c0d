package app

import (
	"math/rand"

	"qcm-runner/internal/domain"
)

// drawEngine hands out bank indices from a permutation fixed at run start, so
// every draw is uniform over the questions not yet drawn and never repeats.
type drawEngine struct {
	rnd   *rand.Rand
	order []int
	pos   int
}

func (d *drawEngine) reset(bankSize int) {
	d.order = d.rnd.Perm(bankSize)
	d.pos = 0
}

// next returns the next unseen question index. ok is false when the run has
// reached limit or the permutation is used up.
func (d *drawEngine) next(bank []domain.Question, asked map[string]struct{}, limit int) (int, bool) {
	if len(asked) >= limit {
		return -1, false
	}
	for d.pos < len(d.order) {
		idx := d.order[d.pos]
		d.pos++
		if _, seen := asked[bank[idx].ID]; !seen {
			return idx, true
		}
	}
	return -1, false
}

// shuffled returns the options in presentation order.
func (d *drawEngine) shuffled(options []string, shuffle bool) []string {
	out := make([]string, len(options))
	copy(out, options)
	if shuffle {
		d.rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	return out
}
