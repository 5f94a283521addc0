// Command videolens submits videos or a video URL to Gemini and prints the
// model's markdown analysis.
//
// Subcommands:
//
//	analyze      analyze local files or --url
//	models       list allow-listed (or, with --remote, available) models
//	config       init, validate and show configuration
//	check        run preflight checks
//	serve        run the HTTP server and web page
//	staging      list or sweep leftover request staging directories
//	logs         print or follow the JSON log file
//	test-notify  send a test ntfy notification
//
// Results go to stdout; logs, progress and tables of uploaded assets go to
// stderr so output can be piped.
package main
