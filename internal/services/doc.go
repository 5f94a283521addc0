// Package services defines shared utilities consumed by the analysis pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers and stage names for
//     logging.
//   - Structured error markers plus the Wrap helper, so every failure carries a
//     stable kind (configuration, upload, processing, analysis, timeout) up to
//     the CLI and HTTP boundaries.
//
// Integrations with remote providers live in subpackages (see gemini).
package services
