package osm

import (
	"time"

	"github.com/NERVsystems/rel2coords/pkg/core"
)

// MonitoringHooks observe each element fetch. Any field may be nil.
type MonitoringHooks struct {
	// OnRequest is called before fetching an element
	OnRequest func(kind ElementKind)

	// OnResponse is called once the fetch has completed or failed
	OnResponse func(kind ElementKind, duration time.Duration, success bool)

	// OnError is called with the error code of a failed fetch
	OnError func(kind ElementKind, code core.ErrorCode)
}

func (h *MonitoringHooks) request(kind ElementKind) {
	if h != nil && h.OnRequest != nil {
		h.OnRequest(kind)
	}
}

func (h *MonitoringHooks) response(kind ElementKind, d time.Duration, success bool) {
	if h != nil && h.OnResponse != nil {
		h.OnResponse(kind, d, success)
	}
}

func (h *MonitoringHooks) failed(kind ElementKind, code core.ErrorCode) {
	if h != nil && h.OnError != nil {
		h.OnError(kind, code)
	}
}
