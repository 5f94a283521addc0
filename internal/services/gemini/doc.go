// Package gemini adapts the Google Gemini SDK to the analysis.Backend port.
//
// The client uploads staged videos through the Files API, reports their
// processing state, and builds chat-backed model handles configured from an
// analysis.ModelSpec. Every error leaving the package carries a services
// marker: rejected credentials are configuration errors, file operations are
// upload errors, and conversations are analysis errors.
//
// Entry points:
//
//	New: construct a client from an API key.
//	Client.NewModel / Model.Analyze: configured single-turn conversations.
//	Client.Upload, Client.GetAsset, Client.DeleteAsset: file lifecycle.
//	Client.ModelInfo, Client.ListModels: model metadata for preflight and the CLI.
package gemini
