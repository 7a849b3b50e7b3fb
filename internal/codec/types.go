// Package codec implements C10: the declarative dialect type and keyword
// mapping tables consumed by C9's rewriter (cross-dialect type mapping,
// identifier/string quoting, session-statement filtering).
package codec
