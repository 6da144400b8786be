package types

// CatalogDocument describes the programs a section offers in its console
type CatalogDocument struct {
	Title         string         `json:"title" yaml:"title"`
	ProgramGroups []ProgramGroup `json:"program_groups" yaml:"program_groups"`
}

// ProgramGroup is a radio set: at most one of its programs is selected
type ProgramGroup struct {
	Name     string    `json:"name" yaml:"name"`
	Icon     string    `json:"icon" yaml:"icon"`
	Programs []Program `json:"programs" yaml:"programs"`
}

// Program is a selectable sub-application. ID doubles as the module lookup key.
type Program struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Icon string `json:"icon" yaml:"icon"`
}

// Group returns the group with the given name
func (d *CatalogDocument) Group(name string) (*ProgramGroup, bool) {
	for i := range d.ProgramGroups {
		if d.ProgramGroups[i].Name == name {
			return &d.ProgramGroups[i], true
		}
	}
	return nil, false
}

// Program returns the program with the given id
func (g *ProgramGroup) Program(id string) (*Program, bool) {
	for i := range g.Programs {
		if g.Programs[i].ID == id {
			return &g.Programs[i], true
		}
	}
	return nil, false
}
