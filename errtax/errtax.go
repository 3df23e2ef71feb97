// Package errtax implements the engine's error taxonomy (spec §7): a
// closed set of sentinel errors grouped into codes, wrapped with
// request-visible detail, propagated by returning an error rather than by
// throwing.
package errtax

import (
	"errors"
	"fmt"
)

// Group is the top-level error code group a sentinel belongs to.
type Group string

const (
	GroupParsing     Group = "parsing"
	GroupType        Group = "type"
	GroupSymbol      Group = "symbol"
	GroupExpression  Group = "expression"
	GroupConstraint  Group = "constraint"
	GroupIO          Group = "io"
	GroupConcurrency Group = "concurrency"
	GroupResource    Group = "resource"
	GroupSystem      Group = "system"
)

// Sentinel errors per §7. Every error the engine returns to a caller is
// either one of these (optionally wrapped with context via fmt.Errorf
// "%w") or a cc/sql_service error surfaced verbatim from the KVS.
var (
	ErrUniqueConstraintViolation        = errors.New("unique_constraint_violation_exception")
	ErrNotNullConstraintViolation       = errors.New("not_null_constraint_violation_exception")
	ErrValueTooLong                     = errors.New("value_too_long_exception")
	ErrValueEvaluation                  = errors.New("value_evaluation_exception")
	ErrUnsupportedRuntimeFeature        = errors.New("unsupported_runtime_feature_exception")
	ErrSymbolAnalyze                    = errors.New("symbol_analyze_exception")
	ErrTypeAnalyze                      = errors.New("type_analyze_exception")
	ErrLTXWriteWithoutWritePreserve     = errors.New("ltx_write_operation_without_write_preserve_exception")
	ErrReadOperationOnRestrictedArea    = errors.New("read_operation_on_restricted_read_area_exception")
	ErrCC                               = errors.New("cc_exception")
	ErrSQLService                       = errors.New("sql_service_exception")
	ErrSerializationFailure             = errors.New("err_serialization_failure")
	ErrInactiveTransaction              = errors.New("err_inactive_transaction")
	ErrJobCanceled                      = errors.New("err_job_canceled")
)

// groupOf maps each sentinel to its §7 code group.
var groupOf = map[error]Group{
	ErrUniqueConstraintViolation:     GroupConstraint,
	ErrNotNullConstraintViolation:    GroupConstraint,
	ErrValueTooLong:                  GroupType,
	ErrValueEvaluation:               GroupExpression,
	ErrUnsupportedRuntimeFeature:     GroupExpression,
	ErrSymbolAnalyze:                 GroupSymbol,
	ErrTypeAnalyze:                   GroupType,
	ErrLTXWriteWithoutWritePreserve:  GroupConcurrency,
	ErrReadOperationOnRestrictedArea: GroupConcurrency,
	ErrCC:                            GroupIO,
	ErrSQLService:                    GroupIO,
	ErrSerializationFailure:          GroupConcurrency,
	ErrInactiveTransaction:           GroupSystem,
	ErrJobCanceled:                   GroupConcurrency,
}

// Detail is the (code, status, message) triple attached to a request's
// diagnostics on failure.
type Detail struct {
	Code    error
	Group   Group
	Message string
}

func (d *Detail) Error() string {
	if d.Message == "" {
		return d.Code.Error()
	}
	return fmt.Sprintf("%s: %s", d.Code.Error(), d.Message)
}

func (d *Detail) Unwrap() error { return d.Code }

// New builds a Detail for a known sentinel, looking up its group.
func New(code error, format string, args ...any) *Detail {
	return &Detail{
		Code:    code,
		Group:   groupOf[code],
		Message: fmt.Sprintf(format, args...),
	}
}

// Is reports whether err is, or wraps, the given sentinel.
func Is(err error, sentinel error) bool {
	return errors.Is(err, sentinel)
}
