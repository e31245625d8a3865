// Package server is the miner backend end of the dashboard channel.
//
// Dashboards connect to a WebSocket at /ws (gorilla/websocket) on the same
// host that serves the dashboard. TLS is enabled when a certificate and key
// are configured, so https pages can use wss.
//
// # Settings
//
// On connect a dashboard receives a settings_sync carrying the current level
// of every subsystem and the current revision. A settings_update is applied
// as a whole to the live logging.Subsystems table, or not at all:
//
//	client                      server
//	  |-- settings_update{seq} --->|  validate, apply, revision++
//	  |<-- settings_ack{seq,rev} --|
//	  |                            |-- settings_sync{rev} --> other dashboards
//
// An invalid batch is answered with settings_reject and changes nothing.
// When a state path is configured the table is written to a YAML file after
// every change and restored on start.
//
// # Telemetry
//
// Publish broadcasts progress events to every dashboard. Each client has a
// bounded send queue drained by its own writer goroutine; when a dashboard
// falls behind, frames for it are dropped. Delivery is at most once.
//
// # Usage Example
//
//	srv, err := server.New(&server.Config{Port: 8125, StatePath: "levels.yaml"}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go srv.Simulate(ctx, 50*time.Millisecond)
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Start returns on SIGINT, SIGTERM or context cancellation after closing
// every dashboard connection.
package server
