//go:build !release

package source

const staticEnabled = true
