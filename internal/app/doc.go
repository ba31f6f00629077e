// Package app wires application dependencies for the CLI.
//
// It loads settings from the config file, environment and flags into an
// explicit Config, and builds the logging backend, transport and session
// graph from it. Nothing here is ambient: every knob travels through Config
// into a constructor.
package app
