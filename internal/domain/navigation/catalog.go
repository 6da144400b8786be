package navigation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/types"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/utils"
)

// FilePattern matches navigation files inside a directory
const FilePattern = "**/*.{yaml,yml,toml,json}"

// Catalog is the immutable set of navigation items
type Catalog struct {
	items []types.NavigationItem
	index map[string]types.NavigationItem
	order []string
}

// New validates items and builds a catalog. Unknown types are kept and
// logged; they are reported again when dispatched.
func New(items []types.NavigationItem, logger *zap.Logger) (*Catalog, error) {
	logger = logging.OrNop(logger)
	c := &Catalog{
		items: cloneItems(items),
		index: make(map[string]types.NavigationItem),
	}

	var walk func(list []types.NavigationItem, parent string) error
	walk = func(list []types.NavigationItem, parent string) error {
		for _, item := range list {
			if err := utils.ValidateID(item.ID, "navigation id", true); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidNavigation, err)
			}
			if _, dup := c.index[item.ID]; dup {
				return fmt.Errorf("%w: %q", ErrDuplicateItem, item.ID)
			}
			if !item.Type.Known() {
				logger.Warn("navigation item has unknown type",
					zap.String("id", item.ID),
					zap.String("type", string(item.Type)),
					zap.String("parent", parent))
			}
			if item.HasSubmenu != (len(item.SubmenuItems) > 0) {
				logger.Warn("navigation submenu flag disagrees with items",
					zap.String("id", item.ID),
					zap.Bool("has_submenu", item.HasSubmenu),
					zap.Int("submenu_items", len(item.SubmenuItems)))
			}

			c.index[item.ID] = cloneItem(item)
			c.order = append(c.order, item.ID)
			if err := walk(item.SubmenuItems, item.ID); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(c.items, ""); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads a navigation file, or every navigation file under a directory
func Load(ctx context.Context, path string, logger *zap.Logger) (*Catalog, error) {
	logger = logging.OrNop(logger)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("navigation path: %w", err)
	}

	files := []string{path}
	if info.IsDir() {
		matches, err := doublestar.Glob(os.DirFS(path), FilePattern)
		if err != nil {
			return nil, fmt.Errorf("scan navigation dir: %w", err)
		}
		sort.Strings(matches)
		files = files[:0]
		for _, m := range matches {
			files = append(files, filepath.Join(path, filepath.FromSlash(m)))
		}
	}

	docs := make([]*types.NavigationDocument, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := loadFile(file)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var items []types.NavigationItem
	for _, doc := range docs {
		items = append(items, doc.Items...)
	}

	catalog, err := New(items, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("navigation catalog loaded",
		zap.String("path", path),
		zap.Int("files", len(files)),
		zap.Int("items", catalog.Len()))
	return catalog, nil
}

func loadFile(path string) (*types.NavigationDocument, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Get returns the item with id, top-level or nested
func (c *Catalog) Get(id string) (types.NavigationItem, bool) {
	item, ok := c.index[id]
	if !ok {
		return types.NavigationItem{}, false
	}
	return cloneItem(item), true
}

// Items returns the top-level items in declaration order
func (c *Catalog) Items() []types.NavigationItem {
	return cloneItems(c.items)
}

// All returns every item, depth first, without nesting
func (c *Catalog) All() []types.NavigationItem {
	out := make([]types.NavigationItem, 0, len(c.order))
	for _, id := range c.order {
		item := c.index[id]
		item.SubmenuItems = nil
		out = append(out, item)
	}
	return out
}

// Len returns the number of dispatchable items
func (c *Catalog) Len() int {
	return len(c.order)
}

func cloneItems(items []types.NavigationItem) []types.NavigationItem {
	if items == nil {
		return nil
	}
	out := make([]types.NavigationItem, len(items))
	for i, item := range items {
		out[i] = cloneItem(item)
	}
	return out
}

func cloneItem(item types.NavigationItem) types.NavigationItem {
	if item.Route != nil {
		route := *item.Route
		item.Route = &route
	}
	item.SubmenuItems = cloneItems(item.SubmenuItems)
	return item
}
