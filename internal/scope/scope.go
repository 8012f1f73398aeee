package scope

import "fmt"

// Lifestyle decides how long a built instance is shared.
type Lifestyle int

const (
	Transient Lifestyle = iota
	Singleton
	Scoped
)

func (l Lifestyle) String() string {
	switch l {
	case Transient:
		return "transient"
	case Singleton:
		return "singleton"
	case Scoped:
		return "scoped"
	default:
		return fmt.Sprintf("lifestyle(%d)", int(l))
	}
}

func (l Lifestyle) Valid() bool {
	return l >= Transient && l <= Scoped
}

// Policy decides how a scope partitions its cache between callers.
type Policy int

const (
	Shared Policy = iota
	Goroutine
	Flow
)

func (p Policy) String() string {
	switch p {
	case Shared:
		return "shared"
	case Goroutine:
		return "goroutine"
	case Flow:
		return "flow"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

func (p Policy) Valid() bool {
	return p >= Shared && p <= Flow
}
