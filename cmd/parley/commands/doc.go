// Package commands implements the parley CLI.
//
// The root command loads settings (config file, environment, flags) and
// builds the application wiring; subcommands use the shared wiring. Errors
// returned by RunE surface through cobra's usual error printing.
package commands
