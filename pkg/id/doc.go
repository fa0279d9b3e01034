// Package id provides small, sortable 128-bit identifiers.
//
// IDs order by generation time first and by an in-process sequence second, so
// two ids produced by the same Generator compare in the order they were made
// even within one millisecond. The event publisher uses this to stamp events;
// reactive values use the hex form as their unique id.
package id
