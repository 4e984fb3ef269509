/*
Package keypath addresses values inside a resolved configuration document.

A path is a dot-separated sequence of object keys, each optionally followed
by one or more array indexes, e.g. `input.soil.fmt`, `output[3].id` or
`pftpar[0].turnover.leaf`. The empty path addresses the document root.

Findings, matrix expectations and PFT rules all name their targets with
paths, so this package centralizes the parsing and printing rules.
*/
package keypath
