package aws

import (
	"go.uber.org/fx"
)

// Module provides the *aws.Config and the *session.Session every client of a Session is built from.
var Module = fx.Options(
	fx.Provide(NewConfig, NewSession),
)
