package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/san-kum/flowsim/internal/dynamo"
	"github.com/san-kum/flowsim/internal/emit"
)

// Comparison runs several simulations side by side. Every tick the first
// member's emission policy produces one batch of rows and every member
// receives an identical copy, so differences between members come from
// their fields and integrators alone.
type Comparison struct {
	members []*Simulation
}

func NewComparison(members ...*Simulation) (*Comparison, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("comparison: no members: %w", dynamo.ErrInvalidConfig)
	}
	lead := members[0]
	for i, m := range members[1:] {
		if m.pool.Layout() != lead.pool.Layout() {
			return nil, fmt.Errorf("comparison: member %d layout %+v differs from %+v: %w",
				i+1, m.pool.Layout(), lead.pool.Layout(), dynamo.ErrDimensionMismatch)
		}
		if m.cfg.Dt != lead.cfg.Dt {
			return nil, fmt.Errorf("comparison: member %d dt %g differs from %g: %w",
				i+1, m.cfg.Dt, lead.cfg.Dt, dynamo.ErrInvalidConfig)
		}
	}
	return &Comparison{members: members}, nil
}

func (c *Comparison) Members() []*Simulation { return c.members }

func (c *Comparison) Stop() {
	for _, m := range c.members {
		m.Stop()
	}
}

// Seed places the same n rows into every member.
func (c *Comparison) Seed(policy emit.Policy, n int) error {
	lead := c.members[0]
	rows, err := lead.pool.Emit(policy, lead.rng, n)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	for _, m := range c.members {
		if err := m.pool.Append(rows); err != nil {
			return err
		}
	}
	return nil
}

// Tick advances every member by one tick, each on its own goroutine.
func (c *Comparison) Tick() ([]Snapshot, error) {
	lead := c.members[0]
	if lead.phase == Terminated {
		return nil, lead.terminatedErr()
	}
	rows, err := lead.emitted()
	if err != nil {
		return nil, &dynamo.SimulationError{Tick: lead.tick, Time: lead.t, Wrapped: err}
	}

	snaps := make([]Snapshot, len(c.members))
	errs := make([]error, len(c.members))

	var wg sync.WaitGroup
	for i, m := range c.members {
		wg.Add(1)
		go func(idx int, m *Simulation) {
			defer wg.Done()
			snaps[idx], errs[idx] = m.advance(rows)
		}(i, m)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return snaps, nil
}

func (c *Comparison) Run(ctx context.Context, ticks int) ([]*Result, error) {
	if ticks <= 0 {
		return nil, fmt.Errorf("comparison: tick count must be positive, got %d: %w", ticks, dynamo.ErrInvalidConfig)
	}
	results := make([]*Result, len(c.members))
	for i, m := range c.members {
		for _, metric := range m.metrics {
			metric.Reset()
		}
		results[i] = newResult()
	}

	finish := func() []*Result {
		for i, m := range c.members {
			m.finish(results[i])
		}
		return results
	}

	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			return finish(), ctx.Err()
		default:
		}
		if c.members[0].phase == Terminated {
			break
		}
		snaps, err := c.Tick()
		if err != nil {
			return finish(), err
		}
		for j, s := range snaps {
			results[j].add(s)
		}
	}
	return finish(), nil
}
