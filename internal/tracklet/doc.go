// Package tracklet owns the per-video tracklet set produced by the upstream
// extraction stage and the derived per-channel feature matrices.
//
// A video contributes two tables with one row per tracklet:
//   - objects: summary vector; column 0 is the temporal index, columns 7-9
//     hold the normalised ending position (x, y) and normalised time.
//   - trajectories: flattened (x, y) positions, 2L values per row.
//
// Both are read from CSV files laid out as <root>/obj/<video>.csv and
// <root>/trj/<video>.csv.
package tracklet
