package wheel

// wheelOptions holds configuration resolved at [New] / [NewWheel] time.
// Grounded on the functional-options idiom used throughout this source
// tree's Loop construction.
type wheelOptions struct {
	logger       Logger
	arbiterClock Clock
	unordered    bool
}

// Option configures a [Wheel] at construction.
type Option interface {
	applyWheel(*wheelOptions)
}

type optionFunc func(*wheelOptions)

func (f optionFunc) applyWheel(o *wheelOptions) { f(o) }

// WithLogger attaches a structured logger; nil disables logging (the
// default). See logging.go.
func WithLogger(l Logger) Option {
	return optionFunc(func(o *wheelOptions) { o.logger = l })
}

// WithArbiterClock records c in the Wheel's resolved options. Nothing reads
// it: a [LoadBalance] takes its clock as the clock argument of
// [NewLoadBalance] (which defaults to [RealClock] when nil), and this option
// does not change that clock.
func WithArbiterClock(c Clock) Option {
	return optionFunc(func(o *wheelOptions) { o.arbiterClock = c })
}

// WithUnorderedEngine selects the [UnorderedEngine] (a full key-order
// registry scan each beat, no deferred-wait list) instead of the default
// round-robin [Engine].
func WithUnorderedEngine() Option {
	return optionFunc(func(o *wheelOptions) { o.unordered = true })
}

func resolveOptions(opts []Option) *wheelOptions {
	cfg := &wheelOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyWheel(cfg)
	}
	return cfg
}

// TaskParams configures a single [Handle.Spawn] call. The zero value spawns
// an unnamed, immediately-runnable task.
type TaskParams struct {
	// Name, if non-empty, makes the task discoverable via
	// [Handle.GetByName] and included in its [State]-adjacent debug output.
	Name string
	// Suspended spawns the task directly into the Suspended state rather
	// than Runnable; it will not be advanced until [Handle.Resume].
	Suspended bool
}
