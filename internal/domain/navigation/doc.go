// Package navigation loads the static navigation catalog: the sections and
// submenu entries a user can act on, and the dispatch type of each.
//
// The catalog is read once at startup from a YAML, TOML or JSON file, or from
// a directory of such files merged in lexical order. Submenu items are indexed
// alongside top-level items so any id can be dispatched. The loaded Catalog is
// immutable; accessors return copies.
package navigation
