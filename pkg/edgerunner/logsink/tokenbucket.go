package logsink

import "time"

// tokenBucket is the per-sink rate limiter described in spec §4.3.
// allowance refills continuously at rate tokens/second, capped at
// rate; an admitted event consumes one token. dropped accumulates
// between once-a-second reports. Ported from the original
// EdgineLogger.sent_out/print_rate_limiter pair.
type tokenBucket struct {
	rate       float64
	allowance  float64
	lastEmit   time.Time
	dropped    int
	lastReport time.Time
}

func newTokenBucket(rate float64, now time.Time) tokenBucket {
	return tokenBucket{
		rate:       rate,
		allowance:  rate,
		lastEmit:   now,
		lastReport: now,
	}
}

// setRate updates the configured rate for this tick without resetting
// accumulated allowance beyond the new cap — a config change narrows
// (or widens) the ceiling immediately, matching the original reading
// cfg.log_rate_limiting_list[index] fresh on every sent_out call.
func (b *tokenBucket) setRate(rate float64) {
	b.rate = rate
	if b.allowance > b.rate {
		b.allowance = b.rate
	}
}

// admit applies the refill-then-consume admission rule. Returns true
// if the event is admitted (and the bucket decremented), false if it
// should be counted as dropped.
func (b *tokenBucket) admit(now time.Time) bool {
	elapsed := now.Sub(b.lastEmit).Seconds()
	b.lastEmit = now

	b.allowance += elapsed * b.rate
	if b.allowance > b.rate {
		b.allowance = b.rate
	}

	if b.allowance >= 1.0 {
		b.allowance -= 1.0
		return true
	}
	b.dropped++
	return false
}

// maybeReport returns the dropped count and true once per wall-clock
// second if anything was dropped since the last report, resetting the
// counters either way once the second has elapsed.
func (b *tokenBucket) maybeReport(now time.Time) (int, bool) {
	if now.Sub(b.lastReport) < time.Second {
		return 0, false
	}
	n := b.dropped
	b.dropped = 0
	b.lastReport = now
	return n, n > 0
}
