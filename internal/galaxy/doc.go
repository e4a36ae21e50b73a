// Package galaxy owns the dynamic galaxy-record store: fixed-size records in
// a double-buffered, geometrically grown array, plus independently allocated
// property blocks addressed by stable opaque handles. The store exists to
// make record-array relocation incapable of dangling a property reference.
package galaxy
