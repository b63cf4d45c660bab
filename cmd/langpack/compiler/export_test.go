package compiler

import "io"

// SetOutput redirects the output of the commands.
func (a *App) SetOutput(w io.Writer) {
	a.rootCmd.SetOut(w)
	a.rootCmd.SetErr(w)
}
