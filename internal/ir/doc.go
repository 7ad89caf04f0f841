// Package ir provides the literal value types carried by structured queries.
//
// This package contains type definitions only. queryir and querysql import
// ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float literals - numeric literals are int64
//   - NULL is an explicit value (IRNull), never a nil interface
package ir
