// ABOUTME: Loopback core package documentation
// ABOUTME: Describes the driver session, buffer-switch engine and routing matrix
// Package loopback routes captured driver input to driver output in real time.
//
// A Session owns one negotiated connection to an asio.Driver:
//   - New negotiates channels, buffer size, sample rate and buffers, and
//     registers the session's callbacks with the driver
//   - Start and Stop control streaming; Release tears the connection down
//   - SetRoute gates an (input, output) pair through the routing Matrix
//
// The driver then calls the buffer-switch engine on its own thread once
// per block. The engine copies each routed input block to its output
// verbatim (no conversion, no gain) and never blocks, allocates or logs.
// Conditions it cannot handle are counted in Stats instead.
//
// Example:
//
//	sess, err := loopback.New(drv, loopback.Config{})
//	if err != nil {
//	    return err
//	}
//	defer sess.Release()
//
//	sess.SetRoute(0, 0, 1.0)
//	sess.SetRoute(0, 1, 1.0)
//	err = sess.Start()
package loopback
