package models

// InstitutionInfo is provider-reported metadata about the linked institution.
type InstitutionInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
	Logo string `json:"logo,omitempty"`
}
