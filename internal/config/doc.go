// Package config loads, normalizes, and validates videolens configuration data.
//
// It supplies repository defaults (model allow-list, generation parameters,
// prompts, poll policy), expands user paths, reads TOML files, and honours
// environment fallbacks such as GEMINI_API_KEY, including values placed in a
// local .env file. Always obtain settings through this package so downstream
// code receives trimmed values and clear validation errors.
package config
