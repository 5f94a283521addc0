// Package notifications delivers analysis events via ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and degrades to a no-op when no topic is set. Completion and
// error messages can be switched off independently; the test notification is
// always sent when a topic exists.
package notifications
