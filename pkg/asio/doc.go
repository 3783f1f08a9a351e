// ABOUTME: ASIO driver boundary package
// ABOUTME: Documents the Driver interface, sample types and driver registry
// Package asio describes the boundary between this library and an
// ASIO-style audio driver.
//
// The package does not talk to hardware itself. It defines:
//   - Driver: the call surface a loaded driver exposes (init, channel and
//     buffer negotiation, buffer creation, start/stop, exit)
//   - Callbacks: the four entry points a driver invokes on its own thread
//   - SampleType: the per-channel sample format tags and their element widths
//   - Registry: driver enumeration and selection
//
// Concrete drivers live elsewhere (see the softdriver package for an
// in-process implementation).
//
// Example:
//
//	reg := asio.NewRegistry()
//	reg.Register("Soft Loopback", func() (asio.Driver, error) {
//	    return softdriver.New(softdriver.Config{}), nil
//	})
//	drv, err := reg.Load("Soft Loopback")
package asio
