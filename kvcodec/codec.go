// Package kvcodec implements the order-preserving binary encoding of
// §3.5: every field kind encodes to a byte string such that lexicographic
// comparison of the encoded bytes equals the declared ordering over the
// decoded tuples, ascending or descending per field.
package kvcodec

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"

	"github.com/kvsql/engine/meta"
	"github.com/kvsql/engine/value"
)

const (
	nullMarker    byte = 0x00
	notNullMarker byte = 0x01
)

// EncodeField appends the encoded representation of v to dst and returns
// the extended slice. Nullable fields are prefixed with a one-byte null
// marker (§3.5); NULL encodes as the marker alone. Descending fields have
// every encoded byte (marker included) inverted, so that ascending
// lexicographic comparison over the inverted bytes yields descending
// order over the original values.
func EncodeField(dst []byte, v value.Any, info meta.FieldInfo) ([]byte, error) {
	start := len(dst)
	var err error
	if info.Nullable {
		if v.IsEmpty() {
			dst = append(dst, nullMarker)
			invertIfDescending(dst[start:], info.Coding)
			return dst, nil
		}
		dst = append(dst, notNullMarker)
	} else if v.IsEmpty() {
		return nil, fmt.Errorf("kvcodec: NULL value for non-nullable field")
	}

	dst, err = encodeScalar(dst, v, info.Type)
	if err != nil {
		return nil, err
	}
	invertIfDescending(dst[start:], info.Coding)
	return dst, nil
}

func invertIfDescending(b []byte, coding meta.CodingSpec) {
	if coding != meta.Descending {
		return
	}
	for i := range b {
		b[i] = ^b[i]
	}
}

// DecodeField consumes one encoded field from src, which holds the raw
// stored bytes (for a descending field still inverted: this function
// inverts a local copy to recover the ascending encoding before decoding),
// and returns the decoded value plus the remaining bytes.
func DecodeField(src []byte, info meta.FieldInfo) (value.Any, []byte, error) {
	if len(src) == 0 {
		return value.Any{}, nil, fmt.Errorf("kvcodec: truncated field")
	}
	// Work on a local copy of the bytes we consume so descending
	// inversion doesn't mutate caller storage.
	work := make([]byte, len(src))
	copy(work, src)
	if info.Coding == meta.Descending {
		for i := range work {
			work[i] = ^work[i]
		}
	}

	rest := work
	if info.Nullable {
		marker := rest[0]
		rest = rest[1:]
		if marker == nullMarker {
			consumed := len(work) - len(rest)
			return value.Empty(), src[consumed:], nil
		}
	}

	v, tail, err := decodeScalar(rest, info.Type)
	if err != nil {
		return value.Any{}, nil, err
	}
	consumed := len(work) - len(tail)
	return v, src[consumed:], nil
}

func encodeScalar(dst []byte, v value.Any, ft value.FieldType) ([]byte, error) {
	switch ft.Kind {
	case value.KindBoolean:
		b, _ := v.AsBool()
		if b {
			return append(dst, 1), nil
		}
		return append(dst, 0), nil
	case value.KindInt1:
		i, _ := v.AsInt()
		return append(dst, byte(int8(i))^0x80), nil
	case value.KindInt2:
		i, _ := v.AsInt()
		var buf [2]byte
		binary.BigEndian.PutUint16(buf[:], uint16(int16(i))^0x8000)
		return append(dst, buf[:]...), nil
	case value.KindInt4:
		i, _ := v.AsInt()
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], uint32(int32(i))^0x80000000)
		return append(dst, buf[:]...), nil
	case value.KindInt8, value.KindDate:
		i, _ := v.AsInt()
		if ft.Kind == value.KindDate {
			i, _ = v.AsDate()
		}
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(i)^0x8000000000000000)
		return append(dst, buf[:]...), nil
	case value.KindFloat4:
		f, _ := v.AsFloat()
		return append(dst, encodeFloat32(float32(f))...), nil
	case value.KindFloat8:
		f, _ := v.AsFloat()
		return append(dst, encodeFloat64(f)...), nil
	case value.KindDecimal:
		d, _ := v.AsDecimal()
		return encodeDecimal(dst, d), nil
	case value.KindCharacter, value.KindOctet:
		b, _ := v.AsBytes()
		return encodeEscaped(dst, b), nil
	case value.KindTimeOfDay:
		nanos, tz, hasTZ, _ := v.AsTimeOfDay()
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(nanos)^0x8000000000000000)
		dst = append(dst, buf[:]...)
		if hasTZ {
			var tzb [4]byte
			binary.BigEndian.PutUint32(tzb[:], uint32(tz)^0x80000000)
			dst = append(dst, tzb[:]...)
		}
		return dst, nil
	case value.KindTimePoint:
		sec, nanos, tz, hasTZ, _ := v.AsTimePoint()
		var buf [16]byte
		binary.BigEndian.PutUint64(buf[0:8], uint64(sec)^0x8000000000000000)
		binary.BigEndian.PutUint64(buf[8:16], uint64(nanos)^0x8000000000000000)
		dst = append(dst, buf[:]...)
		if hasTZ {
			var tzb [4]byte
			binary.BigEndian.PutUint32(tzb[:], uint32(tz)^0x80000000)
			dst = append(dst, tzb[:]...)
		}
		return dst, nil
	case value.KindBlob, value.KindClob:
		ref, _ := v.AsLOB()
		dst = encodeEscaped(dst, []byte(ref.ProviderTag))
		var idb [8]byte
		binary.BigEndian.PutUint64(idb[:], ref.ID)
		dst = append(dst, idb[:]...)
		dst = encodeEscaped(dst, ref.RefTag)
		return dst, nil
	default:
		return nil, fmt.Errorf("kvcodec: unsupported kind %s", ft.Kind)
	}
}

func decodeScalar(src []byte, ft value.FieldType) (value.Any, []byte, error) {
	switch ft.Kind {
	case value.KindBoolean:
		if len(src) < 1 {
			return value.Any{}, nil, errTruncated
		}
		return value.NewBool(src[0] != 0), src[1:], nil
	case value.KindInt1:
		if len(src) < 1 {
			return value.Any{}, nil, errTruncated
		}
		return value.NewInt(ft.Kind, int64(int8(src[0]^0x80))), src[1:], nil
	case value.KindInt2:
		if len(src) < 2 {
			return value.Any{}, nil, errTruncated
		}
		u := binary.BigEndian.Uint16(src[:2]) ^ 0x8000
		return value.NewInt(ft.Kind, int64(int16(u))), src[2:], nil
	case value.KindInt4:
		if len(src) < 4 {
			return value.Any{}, nil, errTruncated
		}
		u := binary.BigEndian.Uint32(src[:4]) ^ 0x80000000
		return value.NewInt(ft.Kind, int64(int32(u))), src[4:], nil
	case value.KindInt8:
		if len(src) < 8 {
			return value.Any{}, nil, errTruncated
		}
		u := binary.BigEndian.Uint64(src[:8]) ^ 0x8000000000000000
		return value.NewInt(ft.Kind, int64(u)), src[8:], nil
	case value.KindDate:
		if len(src) < 8 {
			return value.Any{}, nil, errTruncated
		}
		u := binary.BigEndian.Uint64(src[:8]) ^ 0x8000000000000000
		return value.NewDate(int64(u)), src[8:], nil
	case value.KindFloat4:
		if len(src) < 4 {
			return value.Any{}, nil, errTruncated
		}
		f := decodeFloat32(src[:4])
		return value.NewFloat(value.KindFloat4, float64(f)), src[4:], nil
	case value.KindFloat8:
		if len(src) < 8 {
			return value.Any{}, nil, errTruncated
		}
		f := decodeFloat64(src[:8])
		return value.NewFloat(value.KindFloat8, f), src[8:], nil
	case value.KindDecimal:
		return decodeDecimal(src)
	case value.KindCharacter, value.KindOctet:
		b, rest, err := decodeEscaped(src)
		if err != nil {
			return value.Any{}, nil, err
		}
		if ft.Kind == value.KindCharacter {
			return value.NewText(b), rest, nil
		}
		return value.NewBinary(b), rest, nil
	case value.KindTimeOfDay:
		if len(src) < 8 {
			return value.Any{}, nil, errTruncated
		}
		nanos := int64(binary.BigEndian.Uint64(src[:8]) ^ 0x8000000000000000)
		rest := src[8:]
		if ft.Details.HasTimeZone {
			if len(rest) < 4 {
				return value.Any{}, nil, errTruncated
			}
			tz := int32(binary.BigEndian.Uint32(rest[:4]) ^ 0x80000000)
			return value.NewTimeOfDay(nanos, tz, true), rest[4:], nil
		}
		return value.NewTimeOfDay(nanos, 0, false), rest, nil
	case value.KindTimePoint:
		if len(src) < 16 {
			return value.Any{}, nil, errTruncated
		}
		sec := int64(binary.BigEndian.Uint64(src[0:8]) ^ 0x8000000000000000)
		nanos := int64(binary.BigEndian.Uint64(src[8:16]) ^ 0x8000000000000000)
		rest := src[16:]
		if ft.Details.HasTimeZone {
			if len(rest) < 4 {
				return value.Any{}, nil, errTruncated
			}
			tz := int32(binary.BigEndian.Uint32(rest[:4]) ^ 0x80000000)
			return value.NewTimePoint(sec, nanos, tz, true), rest[4:], nil
		}
		return value.NewTimePoint(sec, nanos, 0, false), rest, nil
	case value.KindBlob, value.KindClob:
		tag, rest, err := decodeEscaped(src)
		if err != nil {
			return value.Any{}, nil, err
		}
		if len(rest) < 8 {
			return value.Any{}, nil, errTruncated
		}
		id := binary.BigEndian.Uint64(rest[:8])
		rest = rest[8:]
		refTag, rest, err := decodeEscaped(rest)
		if err != nil {
			return value.Any{}, nil, err
		}
		return value.NewLOB(ft.Kind, value.LOBReference{ProviderTag: string(tag), ID: id, RefTag: refTag}), rest, nil
	default:
		return value.Any{}, nil, fmt.Errorf("kvcodec: unsupported kind %s", ft.Kind)
	}
}

var errTruncated = fmt.Errorf("kvcodec: truncated field")

func encodeFloat32(f float32) []byte {
	bits := math.Float32bits(f)
	bits = transformFloatBits32(bits, math.IsNaN(float64(f)))
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], bits)
	return buf[:]
}

func decodeFloat32(b []byte) float32 {
	bits := binary.BigEndian.Uint32(b)
	bits = untransformFloatBits32(bits)
	return math.Float32frombits(bits)
}

func transformFloatBits32(bits uint32, isNaN bool) uint32 {
	if isNaN {
		return math.MaxUint32
	}
	if bits&0x80000000 != 0 {
		return ^bits
	}
	return bits | 0x80000000
}

func untransformFloatBits32(bits uint32) uint32 {
	if bits&0x80000000 != 0 {
		return bits &^ 0x80000000
	}
	return ^bits
}

func encodeFloat64(f float64) []byte {
	bits := math.Float64bits(f)
	bits = transformFloatBits64(bits, math.IsNaN(f))
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], bits)
	return buf[:]
}

func decodeFloat64(b []byte) float64 {
	bits := binary.BigEndian.Uint64(b)
	bits = untransformFloatBits64(bits)
	return math.Float64frombits(bits)
}

// transformFloatBits64 implements §3.5: "IEEE bit pattern with sign-bit
// flip for positives; full flip for negatives; NaN sorts last." NaN bit
// patterns vary, so NaN is canonicalized to the maximum encoded value
// regardless of which NaN payload/sign it carries.
func transformFloatBits64(bits uint64, isNaN bool) uint64 {
	if isNaN {
		return math.MaxUint64
	}
	if bits&0x8000000000000000 != 0 {
		return ^bits
	}
	return bits | 0x8000000000000000
}

func untransformFloatBits64(bits uint64) uint64 {
	if bits&0x8000000000000000 != 0 {
		return bits &^ 0x8000000000000000
	}
	return ^bits
}

// decimal128Bytes is the fixed width of the big-endian coefficient: 128
// bits.
const decimal128Bytes = 16

func encodeDecimal(dst []byte, d value.Decimal) []byte {
	var signByte byte = 0x01
	if d.Negative && !d.IsZero() {
		signByte = 0x00
	}
	dst = append(dst, signByte)

	coeffBytes := make([]byte, decimal128Bytes)
	d.Coefficient.FillBytes(coeffBytes)
	if signByte == 0x00 {
		// Negative: invert so larger magnitude sorts smaller, preserving
		// order across negative values.
		for i := range coeffBytes {
			coeffBytes[i] = ^coeffBytes[i]
		}
	}
	dst = append(dst, coeffBytes...)

	var expBuf [4]byte
	binary.BigEndian.PutUint32(expBuf[:], uint32(d.Exponent)^0x80000000)
	if signByte == 0x00 {
		for i := range expBuf {
			expBuf[i] = ^expBuf[i]
		}
	}
	dst = append(dst, expBuf[:]...)
	return dst
}

func decodeDecimal(src []byte) (value.Any, []byte, error) {
	if len(src) < 1+decimal128Bytes+4 {
		return value.Any{}, nil, errTruncated
	}
	signByte := src[0]
	negative := signByte == 0x00
	rest := src[1:]
	coeffBytes := make([]byte, decimal128Bytes)
	copy(coeffBytes, rest[:decimal128Bytes])
	rest = rest[decimal128Bytes:]
	expBytes := make([]byte, 4)
	copy(expBytes, rest[:4])
	rest = rest[4:]

	if negative {
		for i := range coeffBytes {
			coeffBytes[i] = ^coeffBytes[i]
		}
		for i := range expBytes {
			expBytes[i] = ^expBytes[i]
		}
	}
	coeff := new(big.Int).SetBytes(coeffBytes)
	exp := int32(binary.BigEndian.Uint32(expBytes) ^ 0x80000000)

	d, err := value.NewDecimalFromParts(negative, coeff, exp)
	if err != nil {
		return value.Any{}, nil, err
	}
	return value.NewDecimal(d), rest, nil
}

// encodeEscaped implements the "UTF-8 bytes followed by a terminator"
// scheme of §3.5 with an escape so embedded terminator bytes (0x00) do not
// truncate the field early or break the order-preserving property:
// every literal 0x00 byte is written as 0x00 0xFF, and the field ends
// with a 0x00 0x00 terminator. This is a standard memcmp-able byte-string
// encoding; it keeps encode(v1) < encode(v2) for v1 < v2 lexicographically,
// which plain NUL-termination does not when v1 is a non-empty prefix of
// a value containing embedded zero bytes followed by anything but 0x00.
func encodeEscaped(dst []byte, b []byte) []byte {
	for _, c := range b {
		if c == 0x00 {
			dst = append(dst, 0x00, 0xFF)
		} else {
			dst = append(dst, c)
		}
	}
	return append(dst, 0x00, 0x00)
}

func decodeEscaped(src []byte) ([]byte, []byte, error) {
	var out []byte
	i := 0
	for {
		if i >= len(src) {
			return nil, nil, fmt.Errorf("kvcodec: missing terminator")
		}
		if src[i] == 0x00 {
			if i+1 >= len(src) {
				return nil, nil, fmt.Errorf("kvcodec: truncated escape sequence")
			}
			switch src[i+1] {
			case 0x00:
				return out, src[i+2:], nil
			case 0xFF:
				out = append(out, 0x00)
				i += 2
				continue
			default:
				return nil, nil, fmt.Errorf("kvcodec: invalid escape sequence")
			}
		}
		out = append(out, src[i])
		i++
	}
}
