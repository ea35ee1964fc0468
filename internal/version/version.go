// ABOUTME: Build identity constants
// ABOUTME: Product naming reported by the player and receiver binaries
package version

const (
	Product      = "Waveline Player"
	Manufacturer = "Waveline"
	Version      = "0.3.0"
)
