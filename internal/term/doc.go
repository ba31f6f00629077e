// Package term renders session output for an interactive terminal and turns
// stdin into a line stream. It is the CLI's implementation of the display
// collaborator; the session core only ever sees the domain.Display
// interface.
package term
