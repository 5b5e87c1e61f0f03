// Package structure models the atomic configurations a quench starts from.
//
// A Structure is read-only once loaded. The planner shares one pointer
// between every step built for it and never mutates it.
package structure
