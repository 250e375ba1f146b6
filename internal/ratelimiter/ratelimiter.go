package ratelimiter

import "time"

// Limiter decides whether a client key may make another request. When it
// may not, the returned duration is how long until it may retry.
type Limiter interface {
	Allow(key string) (bool, time.Duration)
}

type Config struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}
