// Package feed keeps the latest realtime sample of each probe and fans new
// samples out to subscribers.
//
// The realtime views read a snapshot through the JSON API and follow updates
// over Server-Sent Events. Subscribers receive updates via buffered channels
// with non-blocking sends; a slow subscriber misses updates rather than
// stalling the poller.
package feed
