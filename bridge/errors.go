package bridge

import (
	"fmt"
	"strings"
)

// PathError wraps a core error with the coding path (array of
// string/integer path components) that was being walked when it
// occurred.
type PathError struct {
	Path []any
	Err  error
}

func (e *PathError) Error() string {
	var sb strings.Builder
	sb.WriteString("bridge")
	for _, c := range e.Path {
		switch c := c.(type) {
		case string:
			sb.WriteString(".")
			sb.WriteString(c)
		case int:
			fmt.Fprintf(&sb, "[%d]", c)
		default:
			fmt.Fprintf(&sb, ".%v", c)
		}
	}
	sb.WriteString(": ")
	sb.WriteString(e.Err.Error())
	return sb.String()
}

func (e *PathError) Unwrap() error { return e.Err }

// failAt attaches the full coding path walked so far to err. An error
// that already carries a path is passed through unchanged.
func failAt(path []any, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*PathError); ok {
		return err
	}
	return &PathError{Path: append([]any(nil), path...), Err: err}
}
