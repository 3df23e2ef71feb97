package meta

import "github.com/kvsql/engine/value"

// CodingSpec selects ascending or descending byte-order encoding for one
// field of an index key or value (§3.4, §3.5).
type CodingSpec uint8

const (
	Ascending CodingSpec = iota
	Descending
)

// FieldInfo captures everything the KVS codec needs for one field of an
// index: its type, nullability, the stable offsets computed by
// RecordMeta, and its coding direction (§3.4). RowColumn is this field's
// position in the full table row (all columns, key and non-key together),
// letting the write pipeline pick the right value out of a materialized
// row when re-encoding an index key independent of that index's own
// column order.
type FieldInfo struct {
	Type             value.FieldType
	Nullable         bool
	ValueOffset      int
	NullityBitOffset int
	Coding           CodingSpec
	RowColumn        int
}

// Index is (name, key_meta, value_meta, field_info[]) per §3.4. Fields
// describes the index's own key columns (used to encode the index key);
// ValueFields describes the non-key columns carried in the index's value
// part, if any (empty for a secondary index, whose value is always empty).
type Index struct {
	Name        string
	KeyMeta     *RecordMeta
	ValueMeta   *RecordMeta
	Fields      []FieldInfo
	ValueFields []FieldInfo
}

// PrimaryTarget binds an Index to the primary KVS storage for a table.
type PrimaryTarget struct {
	Index       *Index
	StorageName string
}

// SecondaryTarget binds an Index to a secondary KVS storage. Its key is
// (secondary_columns || primary_key); its value is always empty (§3.4).
type SecondaryTarget struct {
	Index         *Index
	StorageName   string
	PrimaryFields []FieldInfo // primary key fields appended after the secondary columns
}
