// Package request is the HTTP client the dashboard uses to reach the ops
// backend.
//
// Every request is sent relative to a base URL and bounded by a client-side
// timeout. [Client.Do] registers the request's cancel function with a
// per-client pending registry, so the next navigation of that client aborts
// it. A 401 from the backend is reported as [ErrUnauthorized]; callers turn
// it into a redirect to the login page.
package request
