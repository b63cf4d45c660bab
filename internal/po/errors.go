package po

import "fmt"

// ParseError reports why a catalog was rejected.
type ParseError struct {
	File  string
	Line  int
	Token string
	Msg   string
}

func (e ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s (near %q)", e.File, e.Line, e.Msg, e.Token)
}
