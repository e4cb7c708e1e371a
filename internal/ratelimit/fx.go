package ratelimit

import "go.uber.org/fx"

// Module provides the /api client limiter, nil when rate limiting is off.
var Module = fx.Module("ratelimit",
	fx.Provide(NewAPILimiter),
)
