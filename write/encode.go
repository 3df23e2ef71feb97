package write

import (
	"github.com/kvsql/engine/kvcodec"
	"github.com/kvsql/engine/meta"
	"github.com/kvsql/engine/value"
)

// EncodeTuple appends the encoded representation of values (one per
// fields entry, in order) to dst.
func EncodeTuple(dst []byte, fields []meta.FieldInfo, values []value.Any) ([]byte, error) {
	for i, info := range fields {
		var err error
		dst, err = kvcodec.EncodeField(dst, values[i], info)
		if err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// DecodeTuple decodes len(fields) values from src in order.
func DecodeTuple(src []byte, fields []meta.FieldInfo) ([]value.Any, error) {
	out := make([]value.Any, len(fields))
	for i, info := range fields {
		v, rest, err := kvcodec.DecodeField(src, info)
		if err != nil {
			return nil, err
		}
		out[i] = v
		src = rest
	}
	return out, nil
}

// selectColumns projects row onto the positions named by each field's
// RowColumn, in fields order.
func selectColumns(row []value.Any, fields []meta.FieldInfo) []value.Any {
	out := make([]value.Any, len(fields))
	for i, f := range fields {
		out[i] = row[f.RowColumn]
	}
	return out
}

// encodeIndexKey encodes idx's key fields, picking their values out of row
// via each field's RowColumn.
func encodeIndexKey(idx *meta.Index, row []value.Any) ([]byte, error) {
	return EncodeTuple(nil, idx.Fields, selectColumns(row, idx.Fields))
}
