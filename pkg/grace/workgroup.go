package grace

import "sync"

// Workgroup runs tasks on a bounded number of goroutines, collecting the first error.
type Workgroup struct {
	wg      sync.WaitGroup
	slots   chan struct{}
	errOnce sync.Once
	err     error
}

func NewWorkgroup(limit int) *Workgroup {
	if limit < 1 {
		limit = 1
	}

	return &Workgroup{
		slots: make(chan struct{}, limit),
	}
}

func (g *Workgroup) Go(task func() error) {
	g.wg.Add(1)
	g.slots <- struct{}{}

	go func() {
		defer func() {
			<-g.slots
			g.wg.Done()
		}()

		if err := task(); err != nil {
			g.errOnce.Do(func() { g.err = err })
		}
	}()
}

// Wait blocks until all submitted tasks finish and returns the first error observed.
func (g *Workgroup) Wait() error {
	g.wg.Wait()
	return g.err
}
