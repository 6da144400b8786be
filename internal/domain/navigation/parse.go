package navigation

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/types"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/utils"
)

var (
	// ErrInvalidNavigation is returned for a file that cannot be parsed or validated
	ErrInvalidNavigation = errors.New("invalid navigation catalog")
	// ErrDuplicateItem is returned when two items share an id
	ErrDuplicateItem = errors.New("duplicate navigation item")
	// ErrUnsupportedFormat is returned for a file extension with no parser
	ErrUnsupportedFormat = errors.New("unsupported navigation format")
)

// Format identifies a navigation file encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFor maps a file name to its format
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Parse decodes a navigation document
func Parse(data []byte, format Format) (*types.NavigationDocument, error) {
	if len(data) > utils.MaxNavigationSize {
		return nil, fmt.Errorf("%w: document exceeds %d bytes", ErrInvalidNavigation, utils.MaxNavigationSize)
	}

	var doc types.NavigationDocument
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatTOML:
		err = toml.Unmarshal(data, &doc)
	case FormatJSON:
		err = sonic.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNavigation, err)
	}
	return &doc, nil
}
