package common

const (
	// MaxWaitlistRequestBody limits waitlist form bodies.
	MaxWaitlistRequestBody = 64 << 10
	// DefaultDispatchLogLimit is used when ?limit is absent.
	DefaultDispatchLogLimit = 50
	// MaxDispatchLogLimit caps ?limit on the dispatch log listing.
	MaxDispatchLogLimit = 500
)
