package pipeline

import (
	"fmt"
	"strings"
)

// LocaleError is a failure isolated to one locale. The locale is left out of the pack.
type LocaleError struct {
	Locale string
	Err    error
}

func (e LocaleError) Error() string {
	return fmt.Sprintf("locale %s: %v", e.Locale, e.Err)
}

func (e LocaleError) Unwrap() error {
	return e.Err
}

// PipelineError aborts the compilation of a source set. Locales lists the per-locale failures
// collected before the abort.
type PipelineError struct {
	SourceSet string
	Err       error
	Locales   []LocaleError
}

func (e PipelineError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "could not compile source set %q: %v", e.SourceSet, e.Err)
	for _, l := range e.Locales {
		fmt.Fprintf(&b, "\n  %v", l)
	}
	return b.String()
}

func (e PipelineError) Unwrap() error {
	return e.Err
}
