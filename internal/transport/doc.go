// Package transport owns the dashboard's duplex connection to the miner
// backend.
//
// The channel is a WebSocket on the same host the dashboard was loaded from.
// Its scheme follows the page: wss when the page is https, ws otherwise.
//
// A Manager keeps at most one live connection. Connect closes the previous
// connection before dialing a new one. Inbound frames reach the handler in
// arrival order from a single reader goroutine. When no dialer is available
// Connect returns a null connection whose Send does nothing, so the settings
// UI still works locally.
//
// Run wraps Connect in a reconnect loop with bounded exponential backoff:
//
//	m := transport.NewManager(page)
//	err := m.Run(ctx, router.HandleFrame, func(s transport.Status) {
//	    fmt.Println(s.State, s.Attempt, s.Delay)
//	})
package transport
