package rpyc

import "fmt"

// FormatError reports a container that is structurally unreadable. It is
// raised before any deserialization work starts whenever the magic, the slot
// table or the compression layer is malformed.
type FormatError struct {
	File   string
	Reason string
}

func (e *FormatError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("archive format: %s", e.Reason)
	}
	return fmt.Sprintf("archive format: %s: %s", e.File, e.Reason)
}

// SecurityError reports serialized data that asked for a type outside the
// allow-list, or abused the format in a way consistent with a crafted
// payload. A file that raises it yields zero entries.
type SecurityError struct {
	File   string
	Global string
	Reason string
}

func (e *SecurityError) Error() string {
	msg := e.Reason
	if e.Global != "" {
		msg = fmt.Sprintf("disallowed type %q", e.Global)
	}
	if e.File == "" {
		return fmt.Sprintf("restricted reader: %s", msg)
	}
	return fmt.Sprintf("restricted reader: %s: %s", e.File, msg)
}
