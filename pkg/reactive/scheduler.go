package reactive

// Scheduler decides where subscription dispatch work runs. Publishers take
// one at construction instead of sharing process-global state, so tests can
// drive delivery synchronously.
type Scheduler interface {
	// Dispatch arranges for fn to run. fn drains one subscription queue and
	// returns; implementations choose inline or concurrent execution.
	Dispatch(fn func())
}

type asyncScheduler struct{}

func (asyncScheduler) Dispatch(fn func()) { go fn() }

// Async returns the production scheduler: each dispatch runs on its own
// goroutine, so posting an event never blocks on subscriber callbacks.
func Async() Scheduler { return asyncScheduler{} }

type syncScheduler struct{}

func (syncScheduler) Dispatch(fn func()) { fn() }

// Sync returns a scheduler that runs dispatch inline. Delivery completes
// before the posting call returns, which makes event assertions in tests
// deterministic. Not intended for production use.
func Sync() Scheduler { return syncScheduler{} }
