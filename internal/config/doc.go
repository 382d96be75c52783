// Package config loads the varlens configuration file.
//
// # Overview
//
// Settings live in ~/.config/varlens/config.toml. A missing file is not an
// error: Load returns Default() and the caller supplies the project and app
// ids through flags instead. Validate reports the ids that are still
// missing once flags have been applied.
//
// # Fields
//
//	api_url          platform API base URL (default http://127.0.0.1:8000/api)
//	project_id       sent as project_id on every request
//	app_id           app whose variants are listed
//	page_size        rows per page (default 50)
//	request_timeout  per-request HTTP timeout, Go duration (default 10s)
//	poll_interval    background refresh interval (default 30s)
//	cache_size       bound on live pagination windows (default 256)
//	log_file         zap log destination; logging is off when unset
//	log_level        debug, info, warn or error (default info)
//	metrics_addr     listen address for the Prometheus endpoint; off when unset
//
// # Parsing
//
// Strings are trimmed. Empty strings, zero numbers and non-positive
// durations keep their defaults. Paths starting with ~ are expanded against
// the user's home directory. Malformed TOML, durations or log levels fail
// with an error naming the field.
package config
