// Package capture records timestamped transform samples from up to three
// channels.
//
// A Controller owns exactly one Session: the elapsed clock, the channel
// bindings, and the per-channel sample Buffer. It moves Idle -> Armed ->
// Recording on Record and back to Idle on Stop, which optionally hands each
// non-empty channel to the sequence encoder and then resets the session.
//
// Every change notification reads the clock once and appends one sample per
// bound channel with that shared timestamp, so sequences recorded together
// stay aligned frame by frame.
//
// Controller methods must be called from a single goroutine. When sources
// notify from several goroutines, route them through a Dispatcher.
package capture
