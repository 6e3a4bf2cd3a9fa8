//go:build !nochecks

package dist

// Internal consistency assertions run by default. Performance builds compile
// them out with -tags nochecks, trading reported failure for undefined
// behavior on a violated precondition.
const checksEnabled = true
