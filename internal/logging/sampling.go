// internal/logging/sampling.go
package logging

import (
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

// sampledLevels are the levels eligible for sampling, lowest first.
var sampledLevels = []zapcore.Level{
	TraceLevel,
	zapcore.DebugLevel,
	zapcore.InfoLevel,
	zapcore.WarnLevel,
}

// newSampledCore wraps core with level-aware sampling.
// Error and above are never sampled. Each lower level uses its own entry in
// cfg.Levels; a level without an entry passes through unsampled. zap's
// sampler ignores levels below Debug, so Trace gets a messageSampler.
func newSampledCore(core zapcore.Core, cfg SamplingConfig) zapcore.Core {
	if !cfg.Enabled {
		return core
	}

	cores := make([]zapcore.Core, 0, len(sampledLevels)+1)
	cores = append(cores, &levelFilterCore{
		Core:     core,
		minLevel: zapcore.ErrorLevel,
		maxLevel: zapcore.FatalLevel,
	})

	for _, lvl := range sampledLevels {
		var c zapcore.Core = &levelFilterCore{Core: core, minLevel: lvl, maxLevel: lvl}
		if rate, ok := cfg.Levels[lvl]; ok {
			if lvl < zapcore.DebugLevel {
				c = newMessageSampler(c, cfg.Tick.Duration(), rate.Initial, rate.Thereafter)
			} else {
				c = zapcore.NewSamplerWithOptions(c, cfg.Tick.Duration(), rate.Initial, rate.Thereafter)
			}
		}
		cores = append(cores, c)
	}

	return zapcore.NewTee(cores...)
}

// levelFilterCore passes only entries within [minLevel, maxLevel].
type levelFilterCore struct {
	zapcore.Core
	minLevel zapcore.Level
	maxLevel zapcore.Level
}

func (c *levelFilterCore) Enabled(lvl zapcore.Level) bool {
	if lvl < c.minLevel || lvl > c.maxLevel {
		return false
	}
	return c.Core.Enabled(lvl)
}

func (c *levelFilterCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(e.Level) {
		return ce
	}
	return c.Core.Check(e, ce)
}

// With creates a child core that preserves level filtering.
func (c *levelFilterCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelFilterCore{
		Core:     c.Core.With(fields),
		minLevel: c.minLevel,
		maxLevel: c.maxLevel,
	}
}

// messageSampler applies zap's sampling rule at any level: per message and
// tick, the first `first` entries pass, then every `thereafter`th. A zero
// thereafter drops everything after the first ones. Children created by With
// share the counters.
type messageSampler struct {
	zapcore.Core
	tick       time.Duration
	first      uint64
	thereafter uint64
	counts     *messageCounts
}

type messageCounts struct {
	mu      sync.Mutex
	resetAt time.Time
	seen    map[string]uint64
}

func newMessageSampler(core zapcore.Core, tick time.Duration, first, thereafter int) *messageSampler {
	return &messageSampler{
		Core:       core,
		tick:       tick,
		first:      uint64(max(first, 0)),
		thereafter: uint64(max(thereafter, 0)),
		counts:     &messageCounts{seen: make(map[string]uint64)},
	}
}

// inc returns how often msg has been seen in the tick containing now.
func (m *messageCounts) inc(msg string, now time.Time, tick time.Duration) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tick > 0 && !now.Before(m.resetAt) {
		clear(m.seen)
		m.resetAt = now.Add(tick)
	}
	m.seen[msg]++
	return m.seen[msg]
}

func (s *messageSampler) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !s.Enabled(e.Level) {
		return ce
	}
	n := s.counts.inc(e.Message, e.Time, s.tick)
	if n > s.first && (s.thereafter == 0 || (n-s.first)%s.thereafter != 0) {
		return ce
	}
	return s.Core.Check(e, ce)
}

func (s *messageSampler) With(fields []zapcore.Field) zapcore.Core {
	return &messageSampler{
		Core:       s.Core.With(fields),
		tick:       s.tick,
		first:      s.first,
		thereafter: s.thereafter,
		counts:     s.counts,
	}
}
