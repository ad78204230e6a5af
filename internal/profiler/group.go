package profiler

import "github.com/sourcegraph/conc"

// Group runs goroutines that each own a fresh Local. The Local is closed,
// emitting its final reports, when the goroutine's function returns or
// panics.
type Group struct {
	opt Options
	wg  conc.WaitGroup
}

// NewGroup returns a group whose registries use opt.
func NewGroup(opt Options) *Group {
	return &Group{opt: opt}
}

// Go starts fn on a new goroutine with its own registry.
func (g *Group) Go(fn func(l *Local)) {
	g.wg.Go(func() {
		l := NewLocal(g.opt)
		defer l.Close()
		fn(l)
	})
}

// Wait blocks until every goroutine has returned. A panic in any of them is
// re-raised here.
func (g *Group) Wait() {
	g.wg.Wait()
}
