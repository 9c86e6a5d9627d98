// Package notify delivers user-visible notifications (saved, uploaded,
// parse failed) raised by the binding tracker, to a logger, a terminal, or
// both.
package notify
