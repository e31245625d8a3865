// Package progress turns progress telemetry into indicator updates.
//
// Two styles exist. Generation is background work and shows a bare
// percentage. Verification needs the operator's attention and always carries
// a "<n>% Verified" label. Both clamp the incoming percentage to [0,100]
// after rounding, and a bar is active until it reaches 100.
//
// Rendering the same percentage twice yields the same State; the Bar
// interface is the rendering host's handle.
//
// Tracker is the producing side: a long-running job reports done/total and
// the tracker emits an event only when the rounded percentage moves.
package progress
