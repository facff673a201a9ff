package model

// PolicyType groups policies by what they govern.
type PolicyType string

const (
	PolicyTypeSecurity    PolicyType = "security"
	PolicyTypeNetwork     PolicyType = "network"
	PolicyTypeRestriction PolicyType = "restriction"
)

// Policy is a global rule applied to every enrolled device.
type Policy struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        PolicyType `json:"type"`
	Description string     `json:"description"`
	Enforced    bool       `json:"enforced"`
	CreatedDate string     `json:"createdDate"`
}
