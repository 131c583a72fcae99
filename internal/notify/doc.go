// Package notify delivers task events to users in real time.
//
// Each user has a channel named by their ID. A Bus moves events between
// publishers and currently connected subscribers with at-most-once
// semantics: there is no persistence and no replay, so a subscriber that is
// not connected when an event is published never sees it. Hub is the
// in-process Bus; RedisBus fans out across server instances through Redis
// pub/sub. Dispatcher sits in front of a Bus so that request handlers hand
// events off without waiting on delivery.
package notify
