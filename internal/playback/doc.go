// Package playback turns track references into sound on the speaker.
//
// A [Negotiator] works out which transcode targets the server and this client
// share. The [Manager] owns the single active [Sound] and hands out a [Handle]
// per load; backend events are delivered in order and tagged with that handle,
// so events from a sound that was stopped or replaced are easy to discard.
//
// The [Controller] is the state machine on top:
//
//	Idle -> Loading -> Playing <-> Paused -> Idle
//
// When a track finishes and shuffle is on, it asks the server for a random
// track and keeps going. Progress is sampled on a tasks.Schedule while playing.
//
// [BeepBackend] plays through github.com/gopxl/beep/v2 and needs cgo on linux.
package playback
