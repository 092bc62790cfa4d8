package domain

import "fmt"

// Kind names one of the datasets served over /snapshot/<kind>.
type Kind string

const (
	KindPositions Kind = "positions"
	KindTrades    Kind = "trades"
)

// Kinds lists every supported dataset kind in a stable order.
var Kinds = []Kind{KindPositions, KindTrades}

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindPositions, KindTrades:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

func (k Kind) String() string { return string(k) }

// Destination returns the subscription destination for the kind.
func (k Kind) Destination() string { return "/snapshot/" + string(k) }

// Record is a single position or trade. Identity never changes across mutations.
type Record interface {
	Identity() string
	Kind() Kind
}
