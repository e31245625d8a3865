// Package settings drives the per-subsystem log level selectors of the
// dashboard.
//
// InitSettings mounts one Control per catalog subsystem into a Container, in
// catalog order. A Control fires its change callback once for every
// user-driven value change. The Panel wires that callback to the transport:
// it collects every control's value and sends one settings_update batch, so
// rapid edits never produce per-field messages.
//
// Authoritative state comes back from the backend as settings_ack and
// settings_sync. Both carry a revision; the ack also echoes the seq of the
// update it answers. A confirmation that is older than the newest local edit
// is dropped instead of undoing that edit.
package settings
