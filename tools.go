//go:build tools

// This file exists to pin golang.org/x/tools in go.mod for the
// go:generate stringer directives in toktree, without pulling
// the tool itself into ordinary builds (see toktree.Kind, toktree.Paren,
// toktree.PlaceholderKind).
package tools

import (
	_ "golang.org/x/tools/cmd/stringer"
)
