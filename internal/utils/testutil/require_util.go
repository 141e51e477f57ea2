package testutil

import (
	"github.com/stretchr/testify/require"
)

// Assertions wraps require.Assertions so packages share one entry point for test assertions.
type Assertions struct {
	*require.Assertions
}

func Require(t require.TestingT) *Assertions {
	return &Assertions{
		Assertions: require.New(t),
	}
}
