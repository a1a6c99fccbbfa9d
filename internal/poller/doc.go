// Package poller samples the ops backend for the realtime views.
//
// Each probe names a backend path and the JSON field holding a numeric
// reading. The scheduler polls probes on their intervals through a bounded
// worker pool and compares each reading with the threshold of the monitor
// config the probe is bound to.
//
// The main components are:
//
//   - [Scheduler]: Manages periodic polling of probes with a worker pool
//   - [Sample]: Result of polling a single probe
//   - [ProbeInfo]: Configuration for a probe to poll
//
// Users of the tcup package configure probes through its options and do not
// use this package directly.
package poller
