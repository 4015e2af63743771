package experiment

import (
	"fmt"

	"github.com/san-kum/flowsim/internal/config"
	"github.com/san-kum/flowsim/internal/dynamo"
	"github.com/san-kum/flowsim/internal/emit"
	"github.com/san-kum/flowsim/internal/particle"
)

// Policy builds an emission policy from its config.
func Policy(c config.EmissionConfig) (emit.Policy, error) {
	var (
		p   emit.Policy
		err error
	)
	switch c.Kind {
	case "uniform":
		p, err = emit.NewUniform(c.Min, c.Max)
	case "gaussian":
		p, err = emit.NewGaussian(c.Mean, c.Std)
	case "grid":
		p, err = emit.NewGrid(c.Min, c.Max, c.Counts)
	case "seeds":
		p, err = emit.NewSeeds(c.Seeds)
	default:
		return nil, fmt.Errorf("emission kind %q: %w", c.Kind, dynamo.ErrUnknownComponent)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Domain builds the culling domain. It returns nil for "none".
func Domain(c config.DomainConfig) (particle.Domain, error) {
	var (
		d   particle.Domain
		err error
	)
	switch c.Kind {
	case "", "none":
		return nil, nil
	case "box":
		d, err = particle.NewBox(c.Min, c.Max)
	case "ball":
		d, err = particle.NewBall(c.Center, c.Radius)
	default:
		return nil, fmt.Errorf("domain kind %q: %w", c.Kind, dynamo.ErrUnknownComponent)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}
