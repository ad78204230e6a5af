package profiler

// Guard times one pass through a scope. Obtain one from Enter and release it
// with a deferred Exit:
//
//	defer profiler.Enter(c).Exit()
//
// A nil Guard is valid and does nothing.
type Guard struct {
	noCopy noCopy
	c      *Collector
}

// Enter starts timing on c and returns the guard that will stop it.
func Enter(c *Collector) *Guard {
	if !Enabled || c == nil {
		return nil
	}
	c.Start()
	return &Guard{c: c}
}

// Exit stops timing. Only the first call has an effect.
func (g *Guard) Exit() {
	if g == nil || g.c == nil {
		return
	}
	c := g.c
	g.c = nil
	c.Stop()
}

// Run times fn on c and returns its error. The sample is recorded whether fn
// returns normally, returns an error, or panics.
func Run(c *Collector, fn func() error) error {
	defer Enter(c).Exit()
	return fn()
}

// noCopy lets go vet's copylocks check flag copied guards.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
