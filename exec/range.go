package exec

import "github.com/kvsql/engine/kv"

// Range and Bound are the scan-range vocabulary of §4.3.2. They are plain
// aliases of the kv package's types: the operator runtime and the KVS
// adapter boundary describe ranges identically, since a scan ultimately
// just forwards its range to kv.Storage.Scan.
type Range = kv.Range
type Bound = kv.Bound

const (
	Unbound           = kv.Unbound
	Inclusive         = kv.Inclusive
	Exclusive         = kv.Exclusive
	PrefixedInclusive = kv.PrefixedInclusive
	PrefixedExclusive = kv.PrefixedExclusive
)
