// Package ir provides the tagged value tree shared by every quench package.
//
// Configuration layers, step descriptors and workflow exports are all
// expressed as IRValue trees so they can be merged recursively, serialised
// to RFC 8785 canonical JSON and hashed into content-addressed identities.
//
// ir imports nothing internal. Every other package may import it.
//
// Key constraints:
//   - Integers are int64 (IRInt); reals are IRFloat and never NaN or Inf
//   - IRNull is representable in memory but rejected by canonical JSON
//   - All JSON keys use snake_case
package ir
