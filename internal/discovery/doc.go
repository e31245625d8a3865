// Package discovery finds minerdash backends on the local network over mDNS.
//
// A backend started with `minerdash serve --advertise` registers itself as a
// "_minerdash._tcp" service. TXT records describe the channel:
//
//	version=0.3.0   backend version
//	tls=1           channel served over TLS (dashboards use wss)
//	path=/ws        channel path
//
// # Usage Example
//
//	backends, err := discovery.NewScanner().Scan(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, b := range backends {
//	    fmt.Println(b, b.PageURL())
//	}
//
// Scan waits for the whole timeout, collecting every answer, and returns the
// backends sorted by instance name.
package discovery
