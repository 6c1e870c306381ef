package memory

// Faults injects failures into a Store or Sequences built with WithFaults.
// Fields are read on every call, so they may be changed between operations.
type Faults struct {
	// RecordErr fails the next Record call and is then cleared.
	RecordErr error
	// BeforeSetQuantity runs before every guarded quantity write.
	BeforeSetQuantity func(id string)
	// BeforeNextSequence runs before every sequence allocation.
	BeforeNextSequence func()
	// SequenceErr fails every sequence allocation while set.
	SequenceErr error
}

type options struct {
	faults *Faults
}

// Option configures a Store or Sequences.
type Option func(*options)

// WithFaults wires f into the store or counters being built.
func WithFaults(f *Faults) Option {
	return func(o *options) { o.faults = f }
}

func buildOptions(opts []Option) options {
	o := options{faults: &Faults{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.faults == nil {
		o.faults = &Faults{}
	}
	return o
}
