// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the resolve-check-write lifecycle for a
// single template or a whole experiment matrix, decoupled from any
// specific entrypoint like a CLI.
package app
