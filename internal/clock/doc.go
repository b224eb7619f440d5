// Package clock provides the elapsed-time stopwatch used to stamp captured
// transform samples.
//
// Time is always measured from monotonic readings so daylight saving changes
// and wall clock adjustments cannot reorder samples. Misused start/stop calls
// return errors wrapping ErrTimerMisuse; they are warnings, not failures.
package clock
