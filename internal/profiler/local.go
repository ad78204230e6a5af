package profiler

import (
	"context"
	"runtime"
	"strings"

	"github.com/petermattis/goid"
)

// Local is the per-goroutine registry of collectors: one collector per site
// name, created on first use. A Local must only be used by the goroutine that
// created it, and should be closed by that goroutine when it is done.
//
// All methods accept a nil receiver, which is what NewLocal returns when
// profiling is disabled.
type Local struct {
	opt       Options
	goroutine int64
	sites     map[string]*Collector
	callers   map[uintptr]*Collector
	order     []*Collector
	locked    bool
	closed    bool
}

// NewLocal creates a registry owned by the calling goroutine.
func NewLocal(opt Options) *Local {
	if !Enabled || opt.Disabled {
		return nil
	}
	opt.normalize()
	l := &Local{
		opt:       opt,
		goroutine: goid.Get(),
		sites:     make(map[string]*Collector),
		callers:   make(map[uintptr]*Collector),
	}
	if opt.LockOSThread {
		runtime.LockOSThread()
		l.locked = true
	}
	return l
}

// Goroutine returns the id of the owning goroutine.
func (l *Local) Goroutine() int64 {
	if l == nil {
		return 0
	}
	return l.goroutine
}

// Site returns the collector for name, creating it on first use.
func (l *Local) Site(name string) *Collector {
	if l == nil || l.closed {
		return nil
	}
	if c, ok := l.sites[name]; ok {
		return c
	}
	c := newCollector(name, l.goroutine, &l.opt)
	l.sites[name] = c
	l.order = append(l.order, c)
	return c
}

// Enter starts timing the named site.
func (l *Local) Enter(name string) *Guard {
	return Enter(l.Site(name))
}

// Profile starts timing a site named after the calling function, e.g.
// "workload.Compute". The name is resolved once per call site.
func (l *Local) Profile() *Guard {
	if l == nil || l.closed {
		return nil
	}
	var pcs [1]uintptr
	if runtime.Callers(2, pcs[:]) == 0 {
		return nil
	}
	c, ok := l.callers[pcs[0]]
	if !ok {
		c = l.Site(callerName(pcs[0]))
		l.callers[pcs[0]] = c
	}
	return Enter(c)
}

// Collectors returns the registry's collectors in creation order.
func (l *Local) Collectors() []*Collector {
	if l == nil {
		return nil
	}
	return append([]*Collector(nil), l.order...)
}

// Close emits the final report of every collector and releases the OS
// thread if it was locked. Calling Close twice is harmless.
func (l *Local) Close() {
	if l == nil || l.closed {
		return
	}
	l.closed = true
	for _, c := range l.order {
		c.Close()
	}
	if l.locked {
		runtime.UnlockOSThread()
		l.locked = false
	}
}

// callerName returns the function at pc without its import path.
func callerName(pc uintptr) string {
	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	name := frame.Function
	if name == "" {
		return "unknown"
	}
	if idx := strings.LastIndex(name, "/"); idx != -1 {
		name = name[idx+1:]
	}
	return name
}

type localKey struct{}

// NewContext returns a copy of ctx carrying l.
func NewContext(ctx context.Context, l *Local) context.Context {
	return context.WithValue(ctx, localKey{}, l)
}

// FromContext returns the registry stored in ctx, or nil.
func FromContext(ctx context.Context) *Local {
	if ctx == nil {
		return nil
	}
	l, _ := ctx.Value(localKey{}).(*Local)
	return l
}
