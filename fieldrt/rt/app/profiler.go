package app

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	ScopeUpdate   = "update"
	ScopeSimulate = "simulate"
	ScopeRender   = "render"
)

// Profiler keeps the last CPU duration of named scopes plus a few counters.
type Profiler struct {
	Scopes     map[string]time.Duration
	StartTimes map[string]time.Time
	Counts     map[string]int
	Order      []string

	now func() time.Time
}

func NewProfiler() *Profiler {
	return &Profiler{
		Scopes:     make(map[string]time.Duration),
		StartTimes: make(map[string]time.Time),
		Counts:     make(map[string]int),
		now:        time.Now,
	}
}

func (p *Profiler) BeginScope(name string) {
	p.StartTimes[name] = p.now()
	for _, n := range p.Order {
		if n == name {
			return
		}
	}
	p.Order = append(p.Order, name)
}

// EndScope records and returns the time since BeginScope(name). Unopened
// scopes record nothing.
func (p *Profiler) EndScope(name string) time.Duration {
	start, ok := p.StartTimes[name]
	if !ok {
		return 0
	}
	d := p.now().Sub(start)
	p.Scopes[name] = d
	delete(p.StartTimes, name)
	return d
}

// Time runs fn inside scope name and returns its error.
func (p *Profiler) Time(name string, fn func() error) error {
	p.BeginScope(name)
	defer p.EndScope(name)
	return fn()
}

func (p *Profiler) Scope(name string) time.Duration { return p.Scopes[name] }

func (p *Profiler) SetCount(name string, count int) {
	p.Counts[name] = count
}

// Reset zeroes durations but keeps scope order.
func (p *Profiler) Reset() {
	for k := range p.Scopes {
		p.Scopes[k] = 0
	}
}

func (p *Profiler) StatsString() string {
	var sb strings.Builder
	for _, name := range p.Order {
		ms := float64(p.Scopes[name].Microseconds()) / 1000.0
		fmt.Fprintf(&sb, "%-9s %6.2f ms\n", name, ms)
	}

	keys := make([]string, 0, len(p.Counts))
	for k := range p.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "%-9s %d\n", k, p.Counts[k])
	}
	return sb.String()
}
