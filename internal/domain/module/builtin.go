package module

import (
	"context"
	"fmt"
	"html"
)

// PrototypeSpecifier is the generic running-board module every chain can fall back to
const PrototypeSpecifier = "prototype/handler"

// Builtins returns a registry holding the compiled-in modules
func Builtins() *StaticRegistry {
	r := NewStaticRegistry()
	r.RegisterFunc(PrototypeSpecifier, launchPrototype)
	return r
}

// launchPrototype renders a placeholder board for a section without its own
func launchPrototype(ctx context.Context, lc LaunchContext, target Target) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	section := html.EscapeString(lc.Section)
	target.SetTitle(lc.Section)
	target.Render(fmt.Sprintf(
		`<section class="prototype-board"><h2>%s</h2><p>No dedicated board is published for this section yet.</p></section>`,
		section))
	return nil
}
