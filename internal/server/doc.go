// Package server provides the HTTP server of the tcup dashboard.
//
// Every page request is a navigation: the server identifies the browser by
// its client cookie, lets the [router.Navigator] drain the client's pending
// requests and run the guards, then either redirects or renders the view
// shell from the embedded dashboard templates.
//
// The JSON API covers the monitor configs (CRUD), the realtime feed (snapshot
// and Server-Sent Events), the route table for the menu, and a proxy to the
// ops backend whose in-flight requests are cancelled on the client's next
// navigation.
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
