package host

import (
	"encoding/json"
	"fmt"

	"github.com/netresearch/loadedhandler/handler"
)

// Snapshot is the JSON-serializable view of every registered handler's
// HandlerInfo, the §6 reporting structure the Host exposes to operators.
type Snapshot struct {
	Handlers []handler.HandlerInfo `json:"handlers"`
}

// ReportAll returns a Snapshot covering every registered handler, in the
// same sorted order as List.
func (m *Multiplexer) ReportAll() Snapshot {
	names := m.List()
	infos := make([]handler.HandlerInfo, 0, len(names))
	for _, name := range names {
		if h, ok := m.Get(name); ok {
			infos = append(infos, h.GetInfo())
		}
	}
	return Snapshot{Handlers: infos}
}

// ReportJSON marshals ReportAll's result as indented JSON.
func (m *Multiplexer) ReportJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m.ReportAll(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("host: marshaling report: %w", err)
	}
	return data, nil
}
