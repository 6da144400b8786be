package types

// NavigationType selects the dispatch path for a navigation item
type NavigationType string

const (
	NavApplicationsPackage NavigationType = "applications-package"
	NavRunningBoard        NavigationType = "running-board"
	NavTableReporting      NavigationType = "table-reporting"
)

// Known reports whether t is one of the defined navigation types
func (t NavigationType) Known() bool {
	switch t {
	case NavApplicationsPackage, NavRunningBoard, NavTableReporting:
		return true
	}
	return false
}

// NavigationItem is one entry of the static navigation catalog
type NavigationItem struct {
	ID           string           `json:"id" yaml:"id" toml:"id"`
	Label        string           `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Type         NavigationType   `json:"type" yaml:"type" toml:"type"`
	Route        *string          `json:"route,omitempty" yaml:"route,omitempty" toml:"route,omitempty"`
	HasSubmenu   bool             `json:"has_submenu,omitempty" yaml:"has_submenu,omitempty" toml:"has_submenu,omitempty"`
	SubmenuItems []NavigationItem `json:"submenu_items,omitempty" yaml:"submenu_items,omitempty" toml:"submenu_items,omitempty"`
}

// NavigationDocument is the on-disk shape of a navigation file
type NavigationDocument struct {
	Items []NavigationItem `json:"items" yaml:"items" toml:"items"`
}
