// Package api serves the HTTP presentation layer: a single embedded page and
// a small JSON API over the analysis pipeline.
//
// Routes:
//
//	GET  /              embedded page
//	GET  /healthz       liveness
//	GET  /api/models    allow-listed models, default first
//	GET  /api/defaults  default model, prompts and upload limits
//	POST /api/analyze   multipart: files (repeated) or url; model, system_instruction, prompt
//
// Every response carries an X-Request-ID. Errors are JSON objects with the
// message, a stable kind from services.Kind, and the request id. The status
// code follows the kind: validation 400, processing_failed 422, upload,
// analysis and external service failures 502, timeout 504, configuration 500.
//
// A form field that is present but empty is sent as-is: an empty system
// instruction or prompt is legal. Only an absent field falls back to the
// configured default.
package api
