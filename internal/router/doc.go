// Package router holds the dashboard route table and the guard logic that
// runs before every page navigation.
//
// The main components are:
//
//   - [Table]: Static tree of named paths with menu metadata and redirects
//   - [Policy]: The authentication rules, shared by every guard
//   - [Navigator]: Resolves a target, drains the client's pending requests,
//     then runs the global guards followed by the per-route guards
//
// Both guard layers consult the same [Policy.Authenticated] predicate, so the
// global check and the per-route checks cannot drift apart. Each layer denies
// unauthenticated access on its own.
package router
