//go:build !switchboard_noaccel

package native

// compiledIn reports whether the accelerated matcher is part of this build.
const compiledIn = true
