package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

type CheckFunc func(ctx context.Context) error

// Checker runs named dependency checks and caches the result for ttl.
type Checker struct {
	mu sync.Mutex

	checks  map[string]CheckFunc
	ttl     time.Duration
	timeout time.Duration

	nextCheckAt time.Time
	lastResult  Result
}

type Result struct {
	At     time.Time
	OK     bool
	Checks map[string]string
}

// Fields returns the result as sorted key/value pairs for Logger.Info.
func (r Result) Fields() []any {
	names := make([]string, 0, len(r.Checks))
	for name := range r.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	kv := []any{"ok", r.OK}
	for _, name := range names {
		kv = append(kv, name, r.Checks[name])
	}
	return kv
}

// NewChecker bounds every check by timeout when it is positive.
func NewChecker(ttl, timeout time.Duration, checks map[string]CheckFunc) *Checker {
	return &Checker{ttl: ttl, timeout: timeout, checks: checks, lastResult: Result{Checks: map[string]string{}}}
}

func (c *Checker) Check(ctx context.Context) Result {
	c.mu.Lock()
	if time.Now().Before(c.nextCheckAt) {
		res := c.lastResult
		c.mu.Unlock()
		return res
	}
	c.mu.Unlock()

	res := Result{At: time.Now().UTC(), OK: true, Checks: make(map[string]string, len(c.checks))}
	for name, fn := range c.checks {
		if fn == nil {
			res.OK = false
			res.Checks[name] = "invalid check"
			continue
		}
		if err := c.run(ctx, fn); err != nil {
			res.OK = false
			res.Checks[name] = err.Error()
			continue
		}
		res.Checks[name] = "ok"
	}

	c.mu.Lock()
	c.lastResult = res
	c.nextCheckAt = time.Now().Add(c.ttl)
	c.mu.Unlock()

	return res
}

func (c *Checker) run(ctx context.Context, fn CheckFunc) error {
	if c.timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return fn(ctx)
}
