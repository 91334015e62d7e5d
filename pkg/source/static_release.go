//go:build release

package source

const staticEnabled = false
