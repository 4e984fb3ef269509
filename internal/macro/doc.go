// Package macro implements the macro table of the configuration resolver:
// object-like and function-like #define bindings and their expansion over
// preprocessing tokens, following C preprocessor rules closely enough for
// the templates LPJmL is configured with (stringification with #, token
// pasting with ##, argument pre-expansion and self-reference protection).
package macro
