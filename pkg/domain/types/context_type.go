package types

import "github.com/m-mizutani/goerr/v2"

// ContextType is the dominant register of a chunk, computed once when it is indexed.
type ContextType string

const (
	ContextTypeEmotional ContextType = "emotional"
	ContextTypeTemporal  ContextType = "temporal"
	ContextTypeThematic  ContextType = "thematic"
	ContextTypeGeneral   ContextType = "general"
)

// ErrInvalidContextType is returned when a string does not name a ContextType
var ErrInvalidContextType = goerr.New("invalid context type")

// AllContextTypes returns all valid context types
func AllContextTypes() []ContextType {
	return []ContextType{
		ContextTypeEmotional,
		ContextTypeTemporal,
		ContextTypeThematic,
		ContextTypeGeneral,
	}
}

// IsValid checks if the context type is valid
func (c ContextType) IsValid() bool {
	switch c {
	case ContextTypeEmotional, ContextTypeTemporal, ContextTypeThematic, ContextTypeGeneral:
		return true
	default:
		return false
	}
}

// String returns the string representation of the context type
func (c ContextType) String() string {
	return string(c)
}

// ParseContextType parses a string into a ContextType
func ParseContextType(s string) (ContextType, error) {
	c := ContextType(s)
	if !c.IsValid() {
		return "", goerr.Wrap(ErrInvalidContextType, "unknown context type", goerr.V("value", s))
	}
	return c, nil
}
