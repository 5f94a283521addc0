// Package preflight provides readiness checks for the credentials, remote
// model and local paths that videolens depends on.
//
// The CLI "videolens check" command runs RunAll and renders the results as a
// table; "videolens serve" runs the same checks at startup and logs failures
// without refusing to start.
package preflight
