// Package iocli abstracts the terminal for the CLI commands
package iocli

//go:generate moq -out io_mock.go . IO

// IO is everything a command needs from the terminal.
// Write lets tabwriter and json.Encoder render tables and payloads directly.
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
	Write(p []byte) (n int, err error)
}
