package catalog

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"

	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/types"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/utils"
)

var (
	// ErrCatalogUnavailable covers every reason a catalog could not be produced
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrInvalidSection is returned for an empty or unsafe section id
	ErrInvalidSection = errors.New("invalid section id")
)

// Decode parses a JSON catalog document and validates it
func Decode(data []byte) (*types.CatalogDocument, error) {
	if len(data) > utils.MaxCatalogSize {
		return nil, fmt.Errorf("%w: document exceeds %d bytes", ErrCatalogUnavailable, utils.MaxCatalogSize)
	}

	var doc types.CatalogDocument
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: malformed json: %v", ErrCatalogUnavailable, err)
	}
	if err := Validate(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return &doc, nil
}

// DecodeYAML parses a YAML catalog document and validates it
func DecodeYAML(data []byte) (*types.CatalogDocument, error) {
	if len(data) > utils.MaxCatalogSize {
		return nil, fmt.Errorf("%w: document exceeds %d bytes", ErrCatalogUnavailable, utils.MaxCatalogSize)
	}

	var doc types.CatalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: malformed yaml: %v", ErrCatalogUnavailable, err)
	}
	if err := Validate(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return &doc, nil
}

// Validate checks the structural rules a console relies on: group names are
// unique and non-empty, program ids are safe identifiers unique within a group.
func Validate(doc *types.CatalogDocument) error {
	if doc == nil {
		return errors.New("empty document")
	}
	if err := utils.ValidateString(doc.Title, "title", 1, utils.MaxNameLength, true); err != nil {
		return err
	}

	groups := make(map[string]struct{}, len(doc.ProgramGroups))
	for i, group := range doc.ProgramGroups {
		if err := utils.ValidateString(group.Name, fmt.Sprintf("program_groups[%d].name", i), 1, utils.MaxNameLength, true); err != nil {
			return err
		}
		if _, dup := groups[group.Name]; dup {
			return fmt.Errorf("duplicate program group %q", group.Name)
		}
		groups[group.Name] = struct{}{}

		programs := make(map[string]struct{}, len(group.Programs))
		for _, program := range group.Programs {
			if err := utils.ValidateID(program.ID, fmt.Sprintf("program id in group %q", group.Name), true); err != nil {
				return err
			}
			if _, dup := programs[program.ID]; dup {
				return fmt.Errorf("duplicate program %q in group %q", program.ID, group.Name)
			}
			programs[program.ID] = struct{}{}
		}
	}
	return nil
}
