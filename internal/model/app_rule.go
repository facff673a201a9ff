package model

// AppAction is what an app rule does with a matching package.
type AppAction string

const (
	AppActionBlock   AppAction = "block"
	AppActionAllow   AppAction = "allow"
	AppActionMonitor AppAction = "monitor"
)

// AppRule blocks, allows or monitors one app package on a set of devices.
// Devices holds device IDs that are not checked against the registry, so a
// rule may outlive the devices it names.
type AppRule struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	PackageName string    `json:"packageName"`
	Action      AppAction `json:"action"`
	Devices     []string  `json:"devices"`
	Reason      string    `json:"reason"`
}

// Clone returns a copy of the rule that shares no memory with r.
func (r AppRule) Clone() AppRule {
	if r.Devices != nil {
		r.Devices = append([]string{}, r.Devices...)
	}
	return r
}
