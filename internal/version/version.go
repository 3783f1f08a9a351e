// ABOUTME: Product and version constants
// ABOUTME: Shared by the CLI, control server and protocol handshakes
package version

const (
	// Version is the software version reported in handshakes and logs
	Version = "0.3.0"

	// Product is the product name
	Product = "asiomic"

	// Manufacturer is reported as the driver host vendor
	Manufacturer = "asiomic"
)

// String returns "product version"
func String() string {
	return Product + " " + Version
}
