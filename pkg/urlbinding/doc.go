// Package urlbinding parses URL binding patterns and maps request paths to
// them.
//
// A pattern starts with a literal path and may continue with parameters
// and literals:
//
//	/user
//	/user/{id}
//	/user/{id}/{$event}
//	/report/{year=2024}/{month}.pdf
//
// {$event} names the event handler and cannot have a default. A literal
// after the last parameter is the suffix and is optional in requests.
//
// A [Factory] finds the binding for a path: exact paths first, then the
// longest registered prefix. When several bindings share that prefix the
// one whose literals match deepest into the path wins, then the one with
// fewer components. Ties are reported as a *[ConflictError] instead of a
// guess.
package urlbinding
