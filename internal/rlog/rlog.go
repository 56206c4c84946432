// Package rlog centralizes structured logging for the RPG engine. Packages
// that log obtain a component-tagged logger from Named, which derives it
// from logze's package-level logger — logging here is diagnostic only,
// never load-bearing for control flow.
package rlog

import (
	"github.com/maxbolgarin/logze/v2"
)

// Named returns a logger tagged with a component name, the way the
// encode/evolve/cache packages each want their own prefix in output.
func Named(component string) logze.Logger {
	return logze.With("component", component)
}
