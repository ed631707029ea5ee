package constants

import "time"

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
)

const (
	RouteHome     = "/"
	RouteGetEvent = "/get_event"
	RouteCheck    = "/check"
	RouteHealthz  = "/healthz"
	RouteStatic   = "/static"
)

const (
	ErrorCodeInvalidRequest = "invalid_request"
	ErrorCodeMalformedToken = "malformed_token"
	ErrorCodeRateLimited    = "rate_limited"
	ErrorCodeNoEvents       = "no_events"
)

const (
	DefaultPort           = "8080"
	DefaultCatalogPath    = "data/events.json"
	DefaultStaticDir      = "static"
	DefaultRateLimitRPS   = 5
	DefaultRateLimitBurst = 10
	DefaultLimiterTTL     = 1 * time.Hour
	DefaultStaticCacheAge = 5 * time.Minute
)
