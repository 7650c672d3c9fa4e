package server

import (
	"fmt"
	"sync"
	"time"
)

// idleClientLimit bounds how many clients are tracked before idle ones are
// dropped.
const idleClientLimit = 10000

// RateLimiter enforces per-client request rates over sliding windows and
// daily quotas on requests and submitted text.
type RateLimiter struct {
	mu sync.Mutex

	requestsPerMinute int
	requestsPerHour   int
	maxRequestsPerDay int
	maxTextPerDay     int64

	clients map[string]*clientUsage
	now     func() time.Time
}

// clientUsage is the state kept for one client.
type clientUsage struct {
	recent        []time.Time // request times of the last hour, oldest first
	day           time.Time   // start of the current quota day
	requestsToday int
	textToday     int64
	lastSeen      time.Time
}

// Usage is a snapshot of one client's consumption.
type Usage struct {
	RequestsLastMinute int
	RequestsLastHour   int
	RequestsToday      int
	TextToday          int64
}

// NewRateLimiter creates a rate limiter. A zero limit is not enforced.
func NewRateLimiter(requestsPerMinute, requestsPerHour, maxRequestsPerDay int, maxTextPerDay int64) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		requestsPerHour:   requestsPerHour,
		maxRequestsPerDay: maxRequestsPerDay,
		maxTextPerDay:     maxTextPerDay,
		clients:           make(map[string]*clientUsage),
		now:               time.Now,
	}
}

// Allow records a request of textBytes from clientID, or returns a
// *RateLimitError or *QuotaExceededError without recording it.
func (rl *RateLimiter) Allow(clientID string, textBytes int64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	u := rl.client(clientID, now)
	u.roll(now)

	if err := rl.checkRates(u, now); err != nil {
		return err
	}
	if err := rl.checkQuotas(u, textBytes); err != nil {
		return err
	}

	if rl.requestsPerMinute > 0 || rl.requestsPerHour > 0 {
		u.recent = append(u.recent, now)
	}
	u.requestsToday++
	u.textToday += textBytes
	u.lastSeen = now
	return nil
}

func (rl *RateLimiter) checkRates(u *clientUsage, now time.Time) error {
	if rl.requestsPerMinute > 0 {
		inMinute, oldest := u.since(now, time.Minute)
		if inMinute >= rl.requestsPerMinute {
			return &RateLimitError{
				Type:       "minute",
				Limit:      rl.requestsPerMinute,
				RetryAfter: time.Minute - now.Sub(oldest),
			}
		}
	}
	if rl.requestsPerHour > 0 && len(u.recent) >= rl.requestsPerHour {
		return &RateLimitError{
			Type:       "hour",
			Limit:      rl.requestsPerHour,
			RetryAfter: time.Hour - now.Sub(u.recent[0]),
		}
	}
	return nil
}

func (rl *RateLimiter) checkQuotas(u *clientUsage, textBytes int64) error {
	resets := u.day.AddDate(0, 0, 1)
	if rl.maxRequestsPerDay > 0 && u.requestsToday >= rl.maxRequestsPerDay {
		return &QuotaExceededError{
			Type:   "requests",
			Limit:  int64(rl.maxRequestsPerDay),
			Used:   int64(u.requestsToday),
			Resets: resets,
		}
	}
	if rl.maxTextPerDay > 0 && u.textToday+textBytes > rl.maxTextPerDay {
		return &QuotaExceededError{
			Type:   "text",
			Limit:  rl.maxTextPerDay,
			Used:   u.textToday,
			Resets: resets,
		}
	}
	return nil
}

// Usage returns a snapshot of the consumption of clientID.
func (rl *RateLimiter) Usage(clientID string) Usage {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	u, ok := rl.clients[clientID]
	if !ok {
		return Usage{}
	}
	now := rl.now()
	u.roll(now)
	inMinute, _ := u.since(now, time.Minute)
	return Usage{
		RequestsLastMinute: inMinute,
		RequestsLastHour:   len(u.recent),
		RequestsToday:      u.requestsToday,
		TextToday:          u.textToday,
	}
}

// client returns the usage of id, creating it when needed.
func (rl *RateLimiter) client(id string, now time.Time) *clientUsage {
	if u, ok := rl.clients[id]; ok {
		return u
	}
	if len(rl.clients) >= idleClientLimit {
		rl.dropIdle(now)
	}
	u := &clientUsage{day: startOfDay(now), lastSeen: now}
	rl.clients[id] = u
	return u
}

// dropIdle forgets clients not seen since the start of the previous day.
func (rl *RateLimiter) dropIdle(now time.Time) {
	cutoff := startOfDay(now).AddDate(0, 0, -1)
	for id, u := range rl.clients {
		if u.lastSeen.Before(cutoff) {
			delete(rl.clients, id)
		}
	}
}

// roll expires requests older than an hour and resets daily counters.
func (u *clientUsage) roll(now time.Time) {
	if day := startOfDay(now); !day.Equal(u.day) {
		u.day = day
		u.requestsToday = 0
		u.textToday = 0
	}
	drop := 0
	for drop < len(u.recent) && now.Sub(u.recent[drop]) >= time.Hour {
		drop++
	}
	u.recent = u.recent[drop:]
}

// since counts requests within window before now and returns the oldest.
func (u *clientUsage) since(now time.Time, window time.Duration) (int, time.Time) {
	count := 0
	var oldest time.Time
	for i := len(u.recent) - 1; i >= 0 && now.Sub(u.recent[i]) < window; i-- {
		count++
		oldest = u.recent[i]
	}
	return count, oldest
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// RateLimitError represents a rate limit violation.
type RateLimitError struct {
	Type       string        // "minute" or "hour"
	Limit      int           // the limit that was exceeded
	RetryAfter time.Duration // how long to wait before retrying
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (limit: %d, retry after: %v)", e.Type, e.Limit, e.RetryAfter)
}

// QuotaExceededError represents a daily quota violation.
type QuotaExceededError struct {
	Type   string    // "requests" or "text"
	Limit  int64     // the limit that was exceeded
	Used   int64     // current usage
	Resets time.Time // when the quota resets
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s (used: %d, limit: %d, resets: %s)",
		e.Type, e.Used, e.Limit, e.Resets.Format(time.RFC3339))
}
