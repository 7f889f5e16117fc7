// Package events delivers scan progress to subscribers.
//
// The Broker is a thin layer over a leandro-lugaresi/hub Hub. A scan
// publishes "scan.progress" repeatedly and "scan.complete" exactly once.
// Subscribers receive events on a channel and must Close their
// Subscription when done; Close is safe on every exit path and never
// leaves a publisher blocked on an abandoned subscriber.
//
// Delivery is blocking: a slow subscriber slows the publisher down rather
// than losing events, so progress never floods faster than consumers read.
package events
