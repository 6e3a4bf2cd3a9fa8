//go:build nochecks

package dist

const checksEnabled = false
