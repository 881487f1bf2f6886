package process

import "fmt"

// Handle identifies one run of the target process. It is only a capability
// token: memory access goes through the memory package, which revalidates
// the handle on every call. Handles must not be cached across operations.
type Handle struct {
	pid   int
	name  string
	start uint64
}

func (h *Handle) PID() int { return h.pid }

func (h *Handle) Name() string { return h.name }

func (h *Handle) String() string {
	if h == nil {
		return "<nil process>"
	}
	return fmt.Sprintf("%s[%d]", h.name, h.pid)
}
