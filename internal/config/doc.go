// Package config provides layered configuration for keysearch.
//
// Settings come from four layers, each overriding the one before it:
//
//  1. Built-in defaults
//  2. A configuration file (TOML or YAML, chosen by extension)
//  3. KEYSEARCH_ environment variables
//  4. Command-line flags, applied with Config.Set
//
// Basic usage:
//
//	cfg := config.New(config.WithFile("keysearch.toml"))
//	if err := cfg.Load(); err != nil {
//	    return err
//	}
//	if err := cfg.Set("search.caseSensitive", true); err != nil {
//	    return err
//	}
//	opts := cfg.Search().Options()
//
// A configuration file looks like:
//
//	[search]
//	caseSensitive = true
//	regex = false
//
//	[output]
//	format = "json"
//	highlightColor = "#ffaf00"
//
//	[lua]
//	script = "filter.lua"
//	function = "accept"
//	timeout = "250ms"
//
//	[watch]
//	debounce = "100ms"
//
// Environment variables map onto paths by section and camel-cased name:
// KEYSEARCH_SEARCH_CASE_SENSITIVE sets search.caseSensitive. A few short
// forms are also recognised, such as KEYSEARCH_LOG_LEVEL for logging.level.
//
// Section accessors (Search, Logging, Output, Lua, Watch) return snapshot
// structs and fall back to defaults on type errors, which are kept for
// Validate and ConfigErrors.
package config
