//go:build switchboard_noaccel

package native

const compiledIn = false
