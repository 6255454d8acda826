package pregel

const (
	// DefaultConcurrency is the default number of partitions and workers.
	DefaultConcurrency = 4

	// DefaultMaxIterations is the default superstep cap.
	DefaultMaxIterations = 20
)

// Config holds the engine parameters of one computation.
type Config struct {
	// Concurrency is the worker count and the upper bound on partitions.
	Concurrency int

	// MaxIterations is the hard cap on supersteps, always enforced.
	MaxIterations int

	// Asynchronous lets a node consume messages sent earlier in the same
	// superstep instead of waiting for the barrier.
	Asynchronous bool

	// Partitioning selects the partitioner. Empty means PartitionRange.
	Partitioning Partitioning

	// Seed is combined with the partition index to seed each partition's
	// random generator.
	Seed uint64
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:   DefaultConcurrency,
		MaxIterations: DefaultMaxIterations,
		Partitioning:  PartitionRange,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Concurrency < 1 {
		return configError("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.MaxIterations < 1 {
		return configError("max iterations must be at least 1, got %d", c.MaxIterations)
	}
	switch c.Partitioning {
	case "", PartitionRange, PartitionDegree:
	default:
		return configError("unknown partitioning %q", c.Partitioning)
	}
	return nil
}

// Option configures a Config.
type Option func(*Config)

// WithConcurrency sets the worker count.
func WithConcurrency(n int) Option {
	return func(c *Config) { c.Concurrency = n }
}

// WithMaxIterations sets the superstep cap.
//
// Use WithMaxIterations(1) to run only the initial superstep.
func WithMaxIterations(n int) Option {
	return func(c *Config) { c.MaxIterations = n }
}

// WithAsynchronous selects asynchronous message delivery.
func WithAsynchronous(async bool) Option {
	return func(c *Config) { c.Asynchronous = async }
}

// WithPartitioning selects the partitioner.
func WithPartitioning(p Partitioning) Option {
	return func(c *Config) { c.Partitioning = p }
}

// WithSeed sets the global random seed.
func WithSeed(seed uint64) Option {
	return func(c *Config) { c.Seed = seed }
}

// NewConfig applies opts over DefaultConfig.
func NewConfig(opts ...Option) Config {
	c := DefaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
