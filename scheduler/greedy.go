package scheduler

import (
	"context"
	"fmt"

	"github.com/kbukum/dataflow/errors"
	"github.com/kbukum/dataflow/logger"
)

// run is the outcome of one ordering pass.
type run struct {
	sequence []int
	peak     []int
	live     lifetimes
}

// cancelCheck is how many steps the ordering loops take between two looks
// at the context.
const cancelCheck = 1024

// stepObserver is told about each committed step.
type stepObserver func(step, node int, b []int)

// greedy orders activations so that the largest normalized FIFO occupancy
// after each step is minimal. Ties go to the node chosen least recently.
func greedy(ctx context.Context, s *simulator, q []int, record bool, observe stepObserver) (*run, error) {
	s.reset(q)
	r := &run{peak: append([]int(nil), s.b...)}
	if record {
		r.live = newLifetimes(len(s.b))
	}
	last := make([]int, len(q))
	for i := range last {
		last[i] = -1
	}

	for step := 0; !s.done(); step++ {
		if step%cancelCheck == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		best := -1
		var bestB []int
		var bestA activation
		var bestScore fraction
		for i := range q {
			if s.remaining[i] == 0 {
				continue
			}
			a := s.activation(i)
			nb, ok := s.next(a)
			if !ok {
				continue
			}
			sc := s.score(nb)
			if best == -1 || sc.less(bestScore) || (sc.equal(bestScore) && last[i] <= last[best]) {
				best, bestB, bestA, bestScore = i, nb, a, sc
			}
		}
		if best == -1 {
			return nil, errors.Deadlock(step, "no node can run without reading from an empty FIFO")
		}

		s.fire(best, bestB)
		last[best] = step
		r.sequence = append(r.sequence, best)
		r.track(step, bestA, s.b)
		if observe != nil {
			observe(step, best, s.b)
		}
	}
	return r, nil
}

func (r *run) track(step int, a activation, b []int) {
	for e, v := range b {
		if v > r.peak[e] {
			r.peak[e] = v
		}
	}
	if r.live != nil {
		r.live.record(step, a)
	}
}

// sinkFirst walks the sink-first layers and fires, at each step, the first
// node that stays within the FIFO sizes found by the greedy pass. A fired
// node moves to the end of its layer.
func sinkFirst(ctx context.Context, s *simulator, q []int, layers [][]int, bound []int, observe stepObserver) (*run, error) {
	s.reset(q)
	r := &run{peak: append([]int(nil), s.b...), live: newLifetimes(len(s.b))}

	order := make([][]int, len(layers))
	for i, l := range layers {
		order[i] = append([]int(nil), l...)
	}

	for step := 0; !s.done(); step++ {
		if step%cancelCheck == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		node, nb, act := -1, []int(nil), activation{}
	search:
		for li, layer := range order {
			for pos, i := range layer {
				if s.remaining[i] == 0 {
					continue
				}
				a := s.activation(i)
				next, ok := s.next(a)
				if !ok || exceeds(next, bound) {
					continue
				}
				node, nb, act = i, next, a
				order[li] = append(append(layer[:pos:pos], layer[pos+1:]...), i)
				break search
			}
		}
		if node == -1 {
			return nil, errors.Deadlock(step, "no node can run within the greedy FIFO sizes")
		}

		s.fire(node, nb)
		r.sequence = append(r.sequence, node)
		r.track(step, act, s.b)
		if observe != nil {
			observe(step, node, s.b)
		}
	}
	return r, nil
}

func exceeds(b, bound []int) bool {
	for e, v := range b {
		if v > bound[e] {
			return true
		}
	}
	return false
}

// fifoSizeLogger logs the occupancy vector after every step.
func fifoSizeLogger(log *logger.Logger, names []string) stepObserver {
	return func(step, node int, b []int) {
		log.Info("fifo sizes", logger.Fields(
			logger.FieldStep, step,
			logger.FieldNode, names[node],
			"occupancy", fmt.Sprint(b),
		))
	}
}
