package token

import (
	"bytes"
	"io"
	"regexp"

	"github.com/sqlsplitter/sqlsplitter/internal/dialect"
	"github.com/sqlsplitter/sqlsplitter/internal/pipeline"
)

// byteReader is the minimal surface the tokenizer needs from C1; satisfied
// by *source.BufferedByteSource.
type byteReader interface {
	ReadByte() (byte, error)
	Peek(n int) ([]byte, error)
	Position() uint64
}

// quoteState names the tokenizer's current lexical region, matching the
// state machine in spec.md §4.10 (Normal/InCopyHeader/InCopyData/CopyDone
// live in the row package; this is the quoting sub-machine within Normal).
type quoteState int

const (
	stateNormal quoteState = iota
	stateSingleQuote
	stateDoubleQuote
	stateBacktick
	stateBracket
	stateDollarQuote
	stateLineComment
	stateBlockComment
)

var goLineRe = regexp.MustCompile(`(?i)^go(\s+\d+)?\s*$`)

// Tokenizer carves a byte stream into Statements per spec.md §4.3/§4.4.
// It is a finite, lazy, pull-based iterator: Next() advances the
// underlying reader by exactly one statement's worth of bytes.
type Tokenizer struct {
	r       byteReader
	d       dialect.Dialect
	ctx     *pipeline.Context
	done    bool
	lineStart bool // true if only horizontal whitespace seen since last '\n'
	dollarTag []byte
	currentQuoteEscaped bool
}

// New returns a Tokenizer reading from r under dialect d.
func New(r byteReader, d dialect.Dialect, ctx *pipeline.Context) *Tokenizer {
	return &Tokenizer{r: r, d: d, ctx: ctx, lineStart: true}
}

// Next returns the next Statement, or (Statement{}, io.EOF) once exhausted.
// Returned Bytes are owned by the Tokenizer until the next call to Next;
// callers needing to retain them must call Statement.Clone.
func (t *Tokenizer) Next() (Statement, error) {
	if t.done {
		return Statement{}, io.EOF
	}
	if t.ctx != nil && t.ctx.Cancelled() {
		t.done = true
		return Statement{}, &pipeline.CancelledError{}
	}

	var buf bytes.Buffer
	startOffset := t.r.Position()
	state := stateNormal

	for {
		b, err := t.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				t.done = true
				if buf.Len() == 0 {
					return Statement{}, io.EOF
				}
				kind := classifyTruncated(state)
				if kind != "" {
					// Truncated{offset, kind}: emit what we have and stop.
					return Statement{
						Kind:      Unknown,
						Bytes:     buf.Bytes(),
						ByteRange: ByteRange{Offset: startOffset, Length: uint64(buf.Len())},
						Truncated: true,
					}, nil
				}
				return t.finish(buf.Bytes(), startOffset)
			}
			t.done = true
			return Statement{}, err
		}
		buf.WriteByte(b)

		switch state {
		case stateNormal:
			switch {
			case b == '\'':
				t.currentQuoteEscaped = t.mysqlStyleEscapes()
				if t.d == dialect.Postgres && buf.Len() >= 2 {
					prev := buf.Bytes()[buf.Len()-2]
					if prev == 'E' || prev == 'e' {
						t.currentQuoteEscaped = true
					}
				}
				state = stateSingleQuote
			case b == '"' && (t.d == dialect.Postgres || t.d == dialect.SQLite || t.d == dialect.Mssql):
				state = stateDoubleQuote
			case b == '`' && (t.d == dialect.MySQL || t.d == dialect.SQLite):
				state = stateBacktick
			case b == '[' && t.d == dialect.Mssql:
				state = stateBracket
			case b == '-' && t.peekIs('-'):
				t.consumeOne()
				buf.WriteByte('-')
				state = stateLineComment
			case b == '#' && t.d == dialect.MySQL:
				state = stateLineComment
			case b == '/' && t.peekIs('*'):
				t.consumeOne()
				buf.WriteByte('*')
				state = stateBlockComment
			case b == '$' && t.d == dialect.Postgres:
				if tag, ok := t.tryDollarTag(); ok {
					buf.Write(tag)
					t.dollarTag = append([]byte{'$'}, tag...)
					state = stateDollarQuote
				}
			case b == ';':
				return t.finish(buf.Bytes(), startOffset)
			case b == '\n':
				t.lineStart = true
				if t.d == dialect.Mssql {
					if _, ok := t.tryMatchGoLine(); ok {
						return t.finish(buf.Bytes(), startOffset)
					}
				}
			case b == ' ' || b == '\t' || b == '\r':
				// lineStart unaffected by horizontal whitespace
			default:
				t.lineStart = false
			}

		case stateSingleQuote:
			if b == '\'' {
				if t.peekIs('\'') {
					t.consumeOne()
					buf.WriteByte('\'')
				} else {
					state = stateNormal
				}
			} else if b == '\\' && t.currentQuoteEscaped {
				if nb, ok := t.peekByte(); ok {
					t.consumeOne()
					buf.WriteByte(nb)
				}
			}

		case stateDoubleQuote:
			if b == '"' {
				if t.peekIs('"') {
					t.consumeOne()
					buf.WriteByte('"')
				} else {
					state = stateNormal
				}
			}

		case stateBacktick:
			if b == '`' {
				if t.peekIs('`') {
					t.consumeOne()
					buf.WriteByte('`')
				} else {
					state = stateNormal
				}
			}

		case stateBracket:
			if b == ']' {
				if t.peekIs(']') {
					t.consumeOne()
					buf.WriteByte(']')
				} else {
					state = stateNormal
				}
			}

		case stateDollarQuote:
			if b == '$' {
				if t.matchLiteral(t.dollarTag[1:]) {
					buf.Write(t.dollarTag[1:])
					state = stateNormal
				}
			}

		case stateLineComment:
			if b == '\n' {
				t.lineStart = true
				state = stateNormal
			}

		case stateBlockComment:
			if b == '*' && t.peekIs('/') {
				t.consumeOne()
				buf.WriteByte('/')
				state = stateNormal
			}
		}
	}
}

func (t *Tokenizer) mysqlStyleEscapes() bool {
	return t.d == dialect.MySQL || t.d == dialect.SQLite
}

func (t *Tokenizer) finish(b []byte, offset uint64) (Statement, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return Statement{Kind: Comment, Bytes: b, ByteRange: ByteRange{Offset: offset, Length: uint64(len(b))}}, nil
	}
	return Statement{Bytes: b, ByteRange: ByteRange{Offset: offset, Length: uint64(len(b))}}, nil
}

func classifyTruncated(s quoteState) pipeline.TruncatedKind {
	switch s {
	case stateSingleQuote, stateDoubleQuote, stateBacktick, stateBracket:
		return pipeline.TruncatedString
	case stateDollarQuote:
		return pipeline.TruncatedDollarQuote
	case stateBlockComment:
		return pipeline.TruncatedComment
	default:
		return ""
	}
}

// peekIs reports whether the next unread byte equals c, without consuming it.
func (t *Tokenizer) peekIs(c byte) bool {
	p, err := t.r.Peek(1)
	return err == nil && len(p) == 1 && p[0] == c
}

func (t *Tokenizer) peekByte() (byte, bool) {
	p, err := t.r.Peek(1)
	if err != nil || len(p) == 0 {
		return 0, false
	}
	return p[0], true
}

// consumeOne advances the reader by exactly one byte previously observed
// via Peek.
func (t *Tokenizer) consumeOne() {
	_, _ = t.r.ReadByte()
}

// tryDollarTag attempts to match /[A-Za-z_]\w*\$/ immediately after the '$'
// already consumed, consuming and returning "tag$" on success.
func (t *Tokenizer) tryDollarTag() ([]byte, bool) {
	const maxTag = 64
	look, err := t.r.Peek(maxTag)
	if err != nil && len(look) == 0 {
		return nil, false
	}
	i := 0
	for i < len(look) && isTagByte(look[i], i == 0) {
		i++
	}
	if i >= len(look) || look[i] != '$' {
		return nil, false
	}
	t.consumeN(i + 1)
	tag := make([]byte, i+1)
	copy(tag, look[:i+1])
	return tag, true
}

func isTagByte(b byte, first bool) bool {
	if b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') {
		return true
	}
	if !first && b >= '0' && b <= '9' {
		return true
	}
	return false
}

func (t *Tokenizer) consumeN(n int) {
	for i := 0; i < n; i++ {
		t.consumeOne()
	}
}

// matchLiteral reports (without consuming more than the literal on success)
// whether the upcoming bytes equal lit, consuming them if so.
func (t *Tokenizer) matchLiteral(lit []byte) bool {
	if len(lit) == 0 {
		return true
	}
	look, err := t.r.Peek(len(lit))
	if err != nil && len(look) < len(lit) {
		return false
	}
	if !bytes.Equal(look, lit) {
		return false
	}
	t.consumeN(len(lit))
	return true
}

// tryMatchGoLine checks, when positioned right after a '\n' and with
// lineStart true, whether the rest of the current line matches the GO
// batch-separator grammar. On success it consumes and discards the GO
// line (including its trailing newline) and returns true.
func (t *Tokenizer) tryMatchGoLine() ([]byte, bool) {
	if !t.lineStart {
		return nil, false
	}
	const maxLine = 64
	look, err := t.r.Peek(maxLine)
	if err != nil && len(look) == 0 {
		return nil, false
	}
	nl := bytes.IndexByte(look, '\n')
	line := look
	if nl >= 0 {
		line = look[:nl]
	}
	trimmed := bytes.TrimRight(line, "\r")
	if !goLineRe.Match(trimmed) {
		return nil, false
	}
	consumeLen := len(line)
	if nl >= 0 {
		consumeLen++ // include trailing newline
	}
	t.consumeN(consumeLen)
	return line, true
}
