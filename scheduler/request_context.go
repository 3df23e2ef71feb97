package scheduler

// RequestContext is the per-request handle threaded into every Step and
// Task callback: the shared request_detail plus whatever payload the
// caller's steps need (the bound transaction, variable tables, KVS
// views). The scheduler itself never interprets Extra.
type RequestContext struct {
	Detail *Detail
	Extra  any
}
