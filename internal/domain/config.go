package domain

// KeyPrefix namespaces every key and index the facade writes to a shared store.
const KeyPrefix = "vecgate:"

// QueryLimits bounds query requests.
type QueryLimits struct {
	DefaultNResults int
	MaxNResults     int
}

// DefaultQueryLimits returns the limits used when configuration is silent.
func DefaultQueryLimits() QueryLimits {
	return QueryLimits{
		DefaultNResults: 3,
		MaxNResults:     1000,
	}
}
