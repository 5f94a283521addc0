// Package analysis runs the video analysis pipeline: stage local inputs,
// upload them, wait until the remote side has processed every asset, and ask
// a model for a text analysis.
//
// The remote provider is reached through the Backend and Model ports so the
// pipeline can be exercised with fakes. Model handles are memoized by a
// ModelCache that the caller owns, and readiness waits are bounded by the
// Poller's policy.
package analysis
