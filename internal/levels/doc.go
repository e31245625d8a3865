// Package levels is the registry of log verbosity levels and of the miner
// subsystems whose verbosity can be changed at runtime.
//
// The ten levels form a fixed total order from Off to All. A Level's ordinal
// is what travels on the wire. The subsystem catalog is closed and known at
// build time; its declaration order is both the order in which dashboards
// render selectors and the order in which a State is serialized.
package levels
