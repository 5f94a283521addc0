// Package logs reads back the JSON log file written under logging.log_dir.
//
// Last returns the newest matching lines with bounded memory, Follow streams
// lines appended after an offset until its context ends. A Filter narrows
// output to one request's correlation ID or a minimum level; lines that are
// not JSON pass a filter only when it is empty.
package logs
