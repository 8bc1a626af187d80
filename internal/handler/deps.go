package handler

import (
	"roomrelay/internal/app/chat"
	"roomrelay/internal/app/relay"
	"roomrelay/internal/configs"
	"roomrelay/internal/pkg/limiter"
)

// AppDeps bundles what the HTTP layer needs from the rest of the process.
type AppDeps struct {
	Hub      *relay.Hub
	Sessions *chat.Sessions
	Config   *configs.AppConfig

	// ConnectLimiter throttles WebSocket upgrades per client IP. Nil disables it.
	ConnectLimiter *limiter.IPRateLimiter

	// APILimiter throttles the /api routes per client IP. Nil disables it.
	APILimiter *limiter.IPRateLimiter
}
