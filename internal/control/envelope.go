package control

import (
	"strconv"
	"strings"
)

// Terminator ends every control request line
const Terminator = "\r\n"

// Request is one outbound command
type Request struct {
	// TargetID identifies the addressed bulb and is echoed as the envelope id
	TargetID uint64

	// Method names the operation (e.g., "set_power")
	Method string

	// Params is the already-serialized argument list without brackets (e.g., `"on","smooth",500`)
	Params string
}

// Response is the raw reply read back from a bulb
type Response struct {
	Raw []byte
}

// Text returns the reply decoded as text
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Raw)
}

// Empty reports whether the bulb sent nothing back
func (r *Response) Empty() bool {
	return r == nil || len(r.Raw) == 0
}

// Frame renders req as a single terminated request line. Method and params
// are copied verbatim; callers must supply escape-safe values.
func Frame(req Request) []byte {
	var b strings.Builder
	b.Grow(len(req.Method) + len(req.Params) + 48)
	b.WriteString(`{"id":`)
	b.WriteString(strconv.FormatUint(req.TargetID, 10))
	b.WriteString(`,"method":"`)
	b.WriteString(req.Method)
	b.WriteString(`","params":[`)
	b.WriteString(req.Params)
	b.WriteString(`]}`)
	b.WriteString(Terminator)
	return []byte(b.String())
}

// Quote wraps a raw argument as a string parameter
func Quote(arg string) string {
	return `"` + arg + `"`
}
