// stand for bytes helper
package bx

import (
	"encoding/binary"
	"math"
)

// LE is the byte order of every fixed-width field inside an encoded tuple.
var LE = binary.LittleEndian

// --- LE: read ---
func U32(b []byte) uint32 { return LE.Uint32(b) }
func U64(b []byte) uint64 { return LE.Uint64(b) }

// --- LE: write ---
func PutU32(b []byte, v uint32) { LE.PutUint32(b, v) }
func PutU64(b []byte, v uint64) { LE.PutUint64(b, v) }

// --- LE: At (field offset) ---
func U32At(b []byte, off int) uint32       { return U32(b[off:]) }
func U64At(b []byte, off int) uint64       { return U64(b[off:]) }
func PutU32At(b []byte, off int, v uint32) { PutU32(b[off:], v) }
func PutU64At(b []byte, off int, v uint64) { PutU64(b[off:], v) }

// --- signed / float views ---
func I32At(b []byte, off int) int32         { return int32(U32At(b, off)) }
func I64At(b []byte, off int) int64         { return int64(U64At(b, off)) }
func F64At(b []byte, off int) float64       { return math.Float64frombits(U64At(b, off)) }
func PutI32At(b []byte, off int, v int32)   { PutU32At(b, off, uint32(v)) }
func PutI64At(b []byte, off int, v int64)   { PutU64At(b, off, uint64(v)) }
func PutF64At(b []byte, off int, v float64) { PutU64At(b, off, math.Float64bits(v)) }
