// ABOUTME: Host boundary package documentation
// ABOUTME: Describes the sentinel and diagnostics contract of the embedding API
// Package host is the boundary an embedding application talks to.
//
// A Host owns the driver selection and at most one loopback.Session. Its
// methods never return errors: failures are reported through the
// diagnostics function installed with SetDiagnostics (or
// SetWideDiagnostics for hosts that expect NUL-terminated UTF-16), and
// queries made without a session return sentinels:
//
//	InputLatency, OutputLatency        -1
//	SampleRate                         0
//	InputChannelCount, OutputChannelCount 0
//	InputChannelNames, OutputChannelNames nil
//
// Example:
//
//	registry := asio.NewRegistry()
//	registry.Register(softdriver.DefaultName, func() (asio.Driver, error) {
//	    return softdriver.New(softdriver.Config{}), nil
//	})
//
//	h := host.New(registry)
//	h.SetDiagnostics(func(msg string) { fmt.Println(msg) })
//	if h.Initialize(softdriver.DefaultName) {
//	    h.SetInputSendLevel(0, 0, 1)
//	    h.StartLoopback()
//	}
package host
