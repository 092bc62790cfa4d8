// Package session implements the per-connection STOMP protocol engine.
//
// Each Session is an actor: one goroutine owns the subscription table and
// processes inbound payloads, timer ticks and close requests sequentially
// from a single event channel. Timers never touch session state directly,
// they only post tick events tagged with a generation so that ticks from a
// cancelled schedule are recognised and dropped.
package session
