// Package stdlib holds the parts of the lox standard library written in lox.
package stdlib

import _ "embed"

// Prelude is evaluated in the base scope of every runtime unless disabled.
//
//go:embed prelude.lox
var Prelude string
