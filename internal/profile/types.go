package profile

// Company captures the organization under assessment. It is used two
// ways: the sector feeds the industry weight lookup, and the rest becomes
// substitution values in the roadmap prompt. Fields are free-form; only
// existence is ever checked.
type Company struct {
	Name       string            `json:"name,omitempty"`
	Industry   string            `json:"industry,omitempty"`
	SectorType string            `json:"sector_type,omitempty"`
	Size       string            `json:"size,omitempty"`
	Region     string            `json:"region,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Sector returns the weight-table lookup key: the declared sector type,
// falling back to the industry field.
func (c Company) Sector() string {
	if c.SectorType != "" {
		return c.SectorType
	}
	return c.Industry
}
