// Package protocol defines the JSON envelope exchanged between a miner
// backend and its dashboards over the live channel.
//
// Every frame is a JSON object with a "type" discriminator:
//
//	{"type":"settings_update","seq":3,"values":{"miner":7,...}}     dashboard -> backend
//	{"type":"settings_ack","seq":3,"revision":12,"values":{...}}   backend -> sender
//	{"type":"settings_sync","revision":12,"values":{...}}          backend -> dashboards
//	{"type":"settings_reject","seq":3,"message":"..."}             backend -> sender
//	{"type":"progress","style":"verification","percent":41.7}      backend -> dashboards
//
// Settings snapshots are always complete: every subsystem key is present and
// the backend applies a batch atomically or rejects it whole. The seq field is
// a per-dashboard counter and revision is the backend's state counter; both
// let a dashboard discard confirmations that are older than its own edits.
//
// The channel is fire-and-forget. There is no acknowledgement of progress
// frames and no retransmission.
package protocol
