package model

// DocumentVersion is the schema version written with every saved document.
const DocumentVersion = 1

// Document is the whole persisted registry state. It is stored as a single
// JSON blob.
type Document struct {
	Version    int            `json:"version"`
	Sequences  map[string]int `json:"sequences,omitempty"`
	Devices    []Device       `json:"devices"`
	Policies   []Policy       `json:"policies"`
	AppRules   []AppRule      `json:"appRules"`
	Alerts     []Alert        `json:"alerts"`
	Activities []Activity     `json:"activities"`
}

// NewDocument returns an empty document with every collection initialised.
func NewDocument() *Document {
	doc := &Document{Version: DocumentVersion}
	doc.Normalize()
	return doc
}

// Normalize replaces nil collections with empty ones so the document always
// serializes with arrays rather than nulls.
func (d *Document) Normalize() {
	if d.Devices == nil {
		d.Devices = []Device{}
	}
	if d.Policies == nil {
		d.Policies = []Policy{}
	}
	if d.AppRules == nil {
		d.AppRules = []AppRule{}
	}
	if d.Alerts == nil {
		d.Alerts = []Alert{}
	}
	if d.Activities == nil {
		d.Activities = []Activity{}
	}
	for i := range d.Devices {
		if d.Devices[i].Apps == nil {
			d.Devices[i].Apps = []string{}
		}
	}
	for i := range d.AppRules {
		if d.AppRules[i].Devices == nil {
			d.AppRules[i].Devices = []string{}
		}
	}
}
