package particles

import (
	"math"

	"github.com/latticefx/motion/internal/detrand"
	"github.com/latticefx/motion/internal/model"
)

// simState is the complete mutable state of one running simulation.
// Everything a step reads or writes lives here; capturing these fields is
// all a checkpoint needs to resume bit-identically.
type simState struct {
	frame     int
	particles []model.Particle
	rng       *detrand.Source
	nextID    uint64
	emitAcc   float64 // fractional emission carry-over
}

// step advances the simulation one frame. Sub-passes run in a fixed order
// (emission, forces, integration, collisions, lifetime and spawning, then
// flocking) and force fields apply in config order, so a replay from any
// state is bit-identical to the original run.
func (s *simState) step(cfg *model.ParticleSystemConfig) {
	s.emit(cfg)

	accels := s.accumulateForces(cfg)
	s.integrate(accels)
	s.collide(cfg)
	s.retireAndSpawn(cfg)
	if cfg.Flocking != nil {
		s.flock(cfg.Flocking)
	}

	s.frame++
}

// emit births new particles for this frame. Fractional rates carry over:
// rate 0.5 emits one particle every other frame.
func (s *simState) emit(cfg *model.ParticleSystemConfig) {
	s.emitAcc += cfg.Emitter.Rate
	n := int(math.Floor(s.emitAcc))
	s.emitAcc -= float64(n)

	limit := maxParticles(cfg)
	for i := 0; i < n && len(s.particles) < limit; i++ {
		s.particles = append(s.particles, s.birth(cfg))
	}
}

// birth draws one particle from the emitter distribution. Draw order is
// fixed; every RNG consumption below is part of the replay contract.
func (s *simState) birth(cfg *model.ParticleSystemConfig) model.Particle {
	em := &cfg.Emitter

	pos := em.Position
	switch em.Shape {
	case model.EmitterLine:
		pos = pos.Add(model.Vec2{X: s.rng.Signed() * em.Extent.X, Y: 0})
	case model.EmitterCircle:
		angle := s.rng.Angle()
		r := math.Sqrt(s.rng.Float64()) * em.Extent.X
		pos = pos.Add(model.Vec2{X: math.Cos(angle) * r, Y: math.Sin(angle) * r})
	case model.EmitterBox:
		pos = pos.Add(model.Vec2{X: s.rng.Signed() * em.Extent.X, Y: s.rng.Signed() * em.Extent.Y})
	}

	dir := (em.Direction + s.rng.Signed()*em.Spread) * math.Pi / 180
	speed := em.Speed + s.rng.Signed()*em.SpeedVariance
	size := em.Size + s.rng.Signed()*em.SizeVariance
	if size < 0 {
		size = 0
	}
	life := cfg.Lifetime.Frames + s.rng.Signed()*cfg.Lifetime.Variance
	if life < 1 {
		life = 1
	}

	p := model.Particle{
		ID:       s.nextID,
		Position: pos,
		Velocity: model.Vec2{X: math.Cos(dir) * speed, Y: math.Sin(dir) * speed},
		Lifetime: life,
		Size:     size,
		Color:    em.Color,
	}
	s.nextID++
	return p
}

// accumulateForces sums per-particle accelerations in config order.
func (s *simState) accumulateForces(cfg *model.ParticleSystemConfig) []model.Vec2 {
	accels := make([]model.Vec2, len(s.particles))
	for _, f := range cfg.Forces {
		switch f.Kind {
		case model.ForceGravity:
			for i := range s.particles {
				accels[i].Y += f.Strength
			}
		case model.ForceWind:
			dir := f.Direction.Normalize().Scale(f.Strength)
			for i := range accels {
				accels[i] = accels[i].Add(dir)
			}
		case model.ForceTurbulence:
			// Turbulence is hash noise over (particle id, frame), not a
			// stream draw: the kick a particle gets depends only on who
			// it is and when, never on iteration count.
			freq := f.Frequency
			if freq <= 0 {
				freq = 1
			}
			cell := uint64(math.Floor(float64(s.frame) * freq / 30))
			for i, p := range s.particles {
				n := detrand.Split(uint64(cfg.Seed), p.ID*0x9e3779b9+cell*0x85ebca6b)
				accels[i] = accels[i].Add(model.Vec2{X: n.Signed() * f.Strength, Y: n.Signed() * f.Strength})
			}
		case model.ForceVortex:
			for i, p := range s.particles {
				rel := p.Position.Sub(f.Center)
				d := rel.Len()
				if d < 1e-6 || (f.Radius > 0 && d > f.Radius) {
					continue
				}
				falloff := 1.0
				if f.Radius > 0 {
					falloff = 1 - d/f.Radius
				}
				tangent := model.Vec2{X: -rel.Y / d, Y: rel.X / d}
				accels[i] = accels[i].Add(tangent.Scale(f.Strength * falloff))
			}
		}
	}
	return accels
}

// integrate applies semi-implicit Euler: velocity first, then position.
func (s *simState) integrate(accels []model.Vec2) {
	for i := range s.particles {
		p := &s.particles[i]
		p.Velocity = p.Velocity.Add(accels[i])
		p.Position = p.Position.Add(p.Velocity)
	}
}

// collide resolves half-plane collisions in config order.
func (s *simState) collide(cfg *model.ParticleSystemConfig) {
	for _, plane := range cfg.Collisions {
		n := plane.Normal.Normalize()
		for i := range s.particles {
			p := &s.particles[i]
			depth := p.Position.Dot(n) - plane.Offset
			if depth >= 0 {
				continue
			}
			// Push back to the surface, reflect the normal component,
			// damp the tangential one.
			p.Position = p.Position.Sub(n.Scale(depth))
			vn := p.Velocity.Dot(n)
			if vn < 0 {
				normal := n.Scale(vn)
				tangent := p.Velocity.Sub(normal)
				p.Velocity = tangent.Scale(1 - plane.Friction).Sub(normal.Scale(plane.Bounce))
			}
		}
	}
}

// retireAndSpawn ages particles, removes the dead, and runs sub-emitters
// at each death site. Deaths process in slice order so spawn draws are
// reproducible.
func (s *simState) retireAndSpawn(cfg *model.ParticleSystemConfig) {
	limit := maxParticles(cfg)
	alive := s.particles[:0]
	var spawned []model.Particle

	for _, p := range s.particles {
		p.Age++
		if p.Age <= p.Lifetime {
			alive = append(alive, p)
			continue
		}
		for _, sub := range cfg.SubEmitters {
			for i := 0; i < sub.Count; i++ {
				angle := s.rng.Angle()
				burst := model.Vec2{X: math.Cos(angle), Y: math.Sin(angle)}.Scale(sub.Speed)
				child := model.Particle{
					ID:         s.nextID,
					Position:   p.Position,
					Velocity:   p.Velocity.Scale(sub.Inherit).Add(burst),
					Lifetime:   sub.Lifetime,
					Size:       sub.Size,
					Color:      sub.Color,
					Generation: p.Generation + 1,
				}
				s.nextID++
				spawned = append(spawned, child)
			}
		}
	}

	for _, child := range spawned {
		if len(alive) >= limit {
			break
		}
		alive = append(alive, child)
	}
	s.particles = alive
}

// flock applies boids steering: separation, alignment, cohesion, with an
// optional speed cap. Quadratic neighbor search; particle counts here are
// canvas-scale, not GPU-scale.
func (s *simState) flock(fl *model.FlockingConfig) {
	if fl.Radius <= 0 || len(s.particles) < 2 {
		return
	}
	r2 := fl.Radius * fl.Radius

	adjust := make([]model.Vec2, len(s.particles))
	for i := range s.particles {
		p := &s.particles[i]
		var sep, avgVel, center model.Vec2
		neighbors := 0

		for j := range s.particles {
			if i == j {
				continue
			}
			q := &s.particles[j]
			rel := q.Position.Sub(p.Position)
			d2 := rel.Dot(rel)
			if d2 > r2 {
				continue
			}
			neighbors++
			avgVel = avgVel.Add(q.Velocity)
			center = center.Add(q.Position)
			if d2 > 1e-12 {
				sep = sep.Sub(rel.Scale(1 / d2))
			}
		}
		if neighbors == 0 {
			continue
		}
		inv := 1 / float64(neighbors)
		avgVel = avgVel.Scale(inv)
		center = center.Scale(inv)

		steer := sep.Scale(fl.Separation)
		steer = steer.Add(avgVel.Sub(p.Velocity).Scale(fl.Alignment))
		steer = steer.Add(center.Sub(p.Position).Scale(fl.Cohesion))
		adjust[i] = steer
	}

	for i := range s.particles {
		p := &s.particles[i]
		p.Velocity = p.Velocity.Add(adjust[i])
		if fl.MaxSpeed > 0 {
			if v := p.Velocity.Len(); v > fl.MaxSpeed {
				p.Velocity = p.Velocity.Scale(fl.MaxSpeed / v)
			}
		}
	}
}
