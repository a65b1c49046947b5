package llm

import (
	"fmt"

	"github.com/dmitrijs2005/gophcoach/internal/common"
)

// UpstreamError means the provider answered but not with a usable
// completion: a non-2xx status, or a 2xx body without a reply.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("completion provider returned status %d: %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Is(target error) bool { return target == common.ErrUpstream }

// TransportError means no response was obtained: network failure, timeout
// or cancellation.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("completion provider unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == common.ErrUpstream }
