// Package controlchart computes statistical-process-control limits for QA
// criteria and classifies out-of-control observations.
//
// Four calculators are available (Shewhart, WSD, SWV, SC). Each consumes the
// valid observations of one column and yields a center line, control limits
// and, depending on the column kind, an upper or lower action limit. Every
// call recomputes from the dataset it is given; nothing is cached.
//
// Limits and data are rounded half-up on exact decimals before points are
// compared, so classification never depends on binary floating-point noise.
package controlchart
