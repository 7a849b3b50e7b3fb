// Package pipeline carries the Context threaded through a single CLI
// invocation (dialect, warning sink, cancellation flag, strict mode) and
// the shared error taxonomy from spec.md §7.
package pipeline

import "fmt"

// WarningCode enumerates the non-fatal conditions emitted by the pipeline.
type WarningCode string

const (
	WarnUnresolvedFK      WarningCode = "unresolved_fk"
	WarnUnknownType       WarningCode = "unknown_type"
	WarnDuplicateTable    WarningCode = "duplicate_table"
	WarnUnsupportedFeat   WarningCode = "unsupported_feature"
	WarnMalformedRow      WarningCode = "malformed_row"
	WarnTruncatedCopy     WarningCode = "truncated_copy"
	WarnUnsupportedType   WarningCode = "unsupported_type"
	WarnLossyTypeCast     WarningCode = "lossy_type_cast"
	WarnFeatureDropped    WarningCode = "feature_dropped"
	WarnUnroutableStmt    WarningCode = "unroutable_statement"
	WarnTruncatedResult   WarningCode = "truncated_result"
)

// Warning is a structured, non-fatal diagnostic that flows alongside the
// statement/row stream rather than aborting it.
type Warning struct {
	Code    WarningCode `json:"code"`
	Table   string      `json:"table,omitempty"`
	Column  string      `json:"column,omitempty"`
	Detail  string      `json:"message,omitempty"`
	Offset  uint64      `json:"offset,omitempty"`
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s: %s (table=%s column=%s offset=%d)", w.Code, w.Detail, w.Table, w.Column, w.Offset)
}

// InputError wraps a failure to open or decompress the source.
type InputError struct{ Err error }

func (e *InputError) Error() string { return fmt.Sprintf("input error: %v", e.Err) }
func (e *InputError) Unwrap() error { return e.Err }

// TruncatedKind distinguishes what the tokenizer was inside when input ran out.
type TruncatedKind string

const (
	TruncatedString     TruncatedKind = "unterminated_string"
	TruncatedIdentifier TruncatedKind = "unterminated_identifier"
	TruncatedComment    TruncatedKind = "unterminated_comment"
	TruncatedDollarQuote TruncatedKind = "unterminated_dollar_quote"
	TruncatedCopyBlock  TruncatedKind = "truncated_copy"
)

// TokenizationError reports that the tokenizer gave up at a well-defined
// byte offset, per spec.md §4.3's failure modes.
type TokenizationError struct {
	Offset uint64
	Kind   TruncatedKind
}

func (e *TokenizationError) Error() string {
	return fmt.Sprintf("truncated input at offset %d: %s", e.Offset, e.Kind)
}

// RowError reports a per-row parse failure; the row is skipped and counted,
// never fatal outside --strict.
type RowError struct {
	Offset uint64
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("malformed row at offset %d: %s", e.Offset, e.Reason)
}

// IntegrityErrorKind enumerates the fatal-under---strict conditions.
type IntegrityErrorKind string

const (
	DuplicatePk      IntegrityErrorKind = "duplicate_pk"
	FkMissingParent  IntegrityErrorKind = "fk_missing_parent"
	TableMissing     IntegrityErrorKind = "table_missing"
)

// IntegrityError is only fatal when Context.Strict is set.
type IntegrityError struct {
	Kind  IntegrityErrorKind
	Table string
	Detail string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity error (%s) in %s: %s", e.Kind, e.Table, e.Detail)
}

// CancelledError is returned when the cooperative cancellation flag was
// observed between statements.
type CancelledError struct{}

func (e *CancelledError) Error() string { return "cancelled" }
