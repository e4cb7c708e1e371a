package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// refillScript keeps one hash per client with the fractional token count in
// milli-tokens and the last refill instant. Replies {admitted, milli, nowMs}.
var refillScript = redis.NewScript(`
local perSecond = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2]) * 1000
local keepMs = tonumber(ARGV[3])

local clock = redis.call("TIME")
local nowMs = clock[1] * 1000 + math.floor(clock[2] / 1000)

local milli = tonumber(redis.call("HGET", KEYS[1], "milli"))
local last = tonumber(redis.call("HGET", KEYS[1], "at"))
if milli == nil or last == nil then
  milli = capacity
else
  local elapsed = math.max(0, nowMs - last)
  milli = math.min(capacity, milli + elapsed * perSecond)
end

local admitted = 0
if milli >= 1000 then
  admitted = 1
  milli = milli - 1000
end

redis.call("HSET", KEYS[1], "milli", milli, "at", nowMs)
redis.call("PEXPIRE", KEYS[1], keepMs)

return {admitted, math.floor(milli), nowMs}
`)

var (
	ErrBucketUnavailable = errors.New("rate limit bucket unavailable")
	ErrInvalidBucketArgs = errors.New("rate limit bucket arguments invalid")
)

// RateLimitResult is the outcome of one admission check.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Bucket runs the refill script against a redis scripter.
type Bucket struct {
	rdb redis.Scripter
}

func NewBucket(rdb redis.Scripter) *Bucket {
	if rdb == nil {
		return nil
	}
	return &Bucket{rdb: rdb}
}

func (b *Bucket) Take(ctx context.Context, key string, perSecond float64, capacity int) (*RateLimitResult, error) {
	if b == nil || b.rdb == nil {
		return nil, ErrBucketUnavailable
	}
	if key == "" || perSecond <= 0 || capacity <= 0 {
		return nil, fmt.Errorf("%w: key=%q rate=%v burst=%d", ErrInvalidBucketArgs, key, perSecond, capacity)
	}

	keep := bucketTTL(perSecond, capacity)
	reply, err := refillScript.Run(ctx, b.rdb, []string{key}, perSecond, capacity, keep.Milliseconds()).Int64Slice()
	if err != nil {
		return nil, err
	}
	if len(reply) != 3 {
		return nil, fmt.Errorf("rate limit script returned %d values", len(reply))
	}

	return bucketState{
		admitted:  reply[0] == 1,
		milli:     reply[1],
		at:        time.UnixMilli(reply[2]),
		perSecond: perSecond,
		capacity:  capacity,
	}.result(), nil
}

type bucketState struct {
	admitted  bool
	milli     int64
	at        time.Time
	perSecond float64
	capacity  int
}

func (s bucketState) tokens() float64 {
	return float64(s.milli) / 1000
}

// secondsFor is how long the bucket needs to accumulate n more tokens.
func (s bucketState) secondsFor(n float64) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n / s.perSecond * float64(time.Second))
}

func (s bucketState) result() *RateLimitResult {
	tokens := s.tokens()
	res := &RateLimitResult{
		Allowed:   s.admitted,
		Limit:     s.capacity,
		Remaining: int(math.Floor(tokens)),
		ResetTime: s.at.Add(s.secondsFor(float64(s.capacity) - tokens)),
	}
	if !s.admitted {
		res.RetryAfter = max(time.Second, s.secondsFor(1-tokens))
	}
	return res
}

// bucketTTL keeps an idle bucket around for twice its full refill time.
func bucketTTL(perSecond float64, capacity int) time.Duration {
	seconds := max(1, 2*math.Ceil(float64(capacity)/perSecond))
	return time.Duration(seconds) * time.Second
}
