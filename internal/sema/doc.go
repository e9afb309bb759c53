// Package sema holds the conversion and enumeration rules the collection
// resolver consults: standard implicit conversions, user-defined
// conversion lookup, better-conversion-target ranking, best common type and
// the enumerable pattern.
package sema
