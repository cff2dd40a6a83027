// Package tokenizer implements the lowest level of PDF processing: splitting
// raw bytes into lexical tokens (ISO 32000-1 §7.2). The object grammar,
// content-stream grammar and CMap grammar are all built on top of it by the
// parser package.
//
// Ported from the teacher's parser/tokenizer/token.go (itself ported from
// the Java PDFTK library), trimmed of the PostScript-only features
// (StartProc/EndProc/CharString) that this library has no use for, and
// generalized so literal strings are bracket-limited and EOL-normalized per
// spec.md §4.2 instead of accepted unbounded.
package tokenizer

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdfgraph/pdfgraph/model"
)

// MaxNestingDepth bounds how deeply literal strings may nest balanced
// parentheses before the tokenizer reports an error (spec.md §4.2).
const MaxNestingDepth = 32

// Kind classifies a Token.
type Kind uint8

const (
	EOF Kind = iota
	Integer
	Real
	StringLiteral
	StringHex
	Name
	ArrayStart
	ArrayEnd
	DictStart
	DictEnd
	Keyword // bareword: obj, endobj, stream, R, true, false, null, operators...
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Integer:
		return "Integer"
	case Real:
		return "Real"
	case StringLiteral:
		return "StringLiteral"
	case StringHex:
		return "StringHex"
	case Name:
		return "Name"
	case ArrayStart:
		return "ArrayStart"
	case ArrayEnd:
		return "ArrayEnd"
	case DictStart:
		return "DictStart"
	case DictEnd:
		return "DictEnd"
	case Keyword:
		return "Keyword"
	default:
		return "<invalid token>"
	}
}

// Token is one lexical unit. Value must be interpreted according to Kind.
type Token struct {
	Kind  Kind
	Value string
}

func (t Token) Int() (int64, error) {
	return strconv.ParseInt(t.Value, 10, 64)
}

func (t Token) Float() (float64, error) {
	return strconv.ParseFloat(t.Value, 64)
}

func (t Token) IsNumber() bool {
	return t.Kind == Integer || t.Kind == Real
}

// startsBinary reports whether this token is immediately followed by raw
// bytes the tokenizer must not try to lex: a stream body or inline image
// data. Callers resume with SetPos once they have consumed the payload.
func (t Token) startsBinary() bool {
	return t.Kind == Keyword && (t.Value == "stream" || t.Value == "ID")
}

func isWhitespace(ch byte) bool {
	switch ch {
	case 0, 9, 10, 12, 13, 32:
		return true
	default:
		return false
	}
}

func isDelimiter(ch byte) bool {
	switch ch {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	default:
		return isWhitespace(ch)
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// Tokenizer is a one-pass PDF lexer over an in-memory byte slice, with two
// tokens of lookahead so the parser can recognize "int int R" and
// "int int obj" without backtracking.
type Tokenizer struct {
	data []byte

	pos        int // read cursor
	currentPos int // start-of-current-token position, restored by SetPos
	nextPos    int

	aToken  Token
	aError  error
	aaToken Token
	aaError error
}

// New builds a Tokenizer positioned at the start of data.
func New(data []byte) *Tokenizer {
	tk := &Tokenizer{data: data}
	tk.initiateAt(0)
	return tk
}

func (tk *Tokenizer) initiateAt(pos int) {
	tk.currentPos = pos
	tk.pos = pos
	tk.aToken, tk.aError = tk.lex(Token{})
	tk.nextPos = tk.pos
	tk.aaToken, tk.aaError = tk.lex(tk.aToken)
}

// Peek returns the next token without consuming it.
func (tk *Tokenizer) Peek() (Token, error) {
	return tk.aToken, tk.aError
}

// PeekPeek returns the token after the next, without consuming either.
func (tk *Tokenizer) PeekPeek() (Token, error) {
	return tk.aaToken, tk.aaError
}

// Next consumes and returns the next token. At end of input it returns an
// EOF token with a nil error.
func (tk *Tokenizer) Next() (Token, error) {
	t, err := tk.aToken, tk.aError
	tk.aToken, tk.aError = tk.aaToken, tk.aaError
	tk.currentPos = tk.nextPos
	tk.nextPos = tk.pos

	if tk.aaToken.startsBinary() {
		tk.aaToken, tk.aaError = Token{Kind: EOF}, nil
	} else {
		tk.aaToken, tk.aaError = tk.lex(tk.aaToken)
	}
	return t, err
}

// Pos returns the byte offset the caller should resume at: the start of the
// token last returned by Peek.
func (tk *Tokenizer) Pos() int {
	return tk.currentPos
}

// SetPos relocates the tokenizer and re-primes its two-token lookahead. Used
// after consuming a stream body or inline image payload with SkipBytes.
func (tk *Tokenizer) SetPos(pos int) {
	tk.initiateAt(pos)
}

// SkipBytes consumes and returns the next n raw bytes starting at the
// current token position, then re-primes lookahead from there.
func (tk *Tokenizer) SkipBytes(n int) []byte {
	target := tk.currentPos + n
	if target > len(tk.data) {
		target = len(tk.data)
	}
	out := tk.data[tk.currentPos:target]
	tk.initiateAt(target)
	return out
}

// Bytes returns the remaining input from the current token position.
func (tk *Tokenizer) Bytes() []byte {
	if tk.currentPos >= len(tk.data) {
		return nil
	}
	return tk.data[tk.currentPos:]
}

func isHexChar(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func (tk *Tokenizer) read() (byte, bool) {
	if tk.pos >= len(tk.data) {
		return 0, false
	}
	ch := tk.data[tk.pos]
	tk.pos++
	return ch, true
}

func (tk *Tokenizer) lex(previous Token) (Token, error) {
	ch, ok := tk.read()
	for ok && isWhitespace(ch) {
		ch, ok = tk.read()
	}
	if !ok {
		return Token{Kind: EOF}, nil
	}

	switch ch {
	case '[':
		return Token{Kind: ArrayStart}, nil
	case ']':
		return Token{Kind: ArrayEnd}, nil
	case '/':
		return tk.lexName()
	case '<':
		v, ok2 := tk.read()
		if ok2 && v == '<' {
			return Token{Kind: DictStart}, nil
		}
		if ok2 {
			tk.pos--
		}
		return tk.lexHexString()
	case '>':
		v, ok2 := tk.read()
		if !ok2 || v != '>' {
			return Token{}, fmt.Errorf("tokenizer: stray '>' at offset %d", tk.pos-1)
		}
		return Token{Kind: DictEnd}, nil
	case '%':
		for ok && ch != '\r' && ch != '\n' {
			ch, ok = tk.read()
		}
		return tk.lex(previous)
	case '(':
		return tk.lexLiteralString()
	default:
		tk.pos--
		if t, ok := tk.readNumber(); ok {
			return t, nil
		}
		return tk.lexKeyword()
	}
}

func (tk *Tokenizer) lexName() (Token, error) {
	var out []byte
	for {
		ch, ok := tk.read()
		if !ok || isDelimiter(ch) {
			if ok {
				tk.pos--
			}
			break
		}
		if ch == '#' {
			h1, ok1 := tk.read()
			h2, ok2 := tk.read()
			if !ok1 || !ok2 {
				return Token{}, fmt.Errorf("tokenizer: truncated #hh escape in name at offset %d", tk.pos)
			}
			b, err := hex.DecodeString(string([]byte{h1, h2}))
			if err != nil {
				return Token{}, model.NewParseError(int64(tk.pos), fmt.Errorf("invalid #hh escape in name: %w", err))
			}
			out = append(out, b[0])
			continue
		}
		out = append(out, ch)
	}
	return Token{Kind: Name, Value: string(out)}, nil
}

func (tk *Tokenizer) lexHexString() (Token, error) {
	var out []byte
	var pending byte
	havePending := false
	for {
		ch, ok := tk.read()
		if !ok {
			return Token{}, model.NewParseError(int64(tk.pos), fmt.Errorf("unterminated hex string"))
		}
		if isWhitespace(ch) {
			continue
		}
		if ch == '>' {
			break
		}
		nib, ok := isHexChar(ch)
		if !ok {
			return Token{}, model.NewParseError(int64(tk.pos), fmt.Errorf("invalid hex digit %q", ch))
		}
		if !havePending {
			pending, havePending = nib, true
		} else {
			out = append(out, pending<<4|nib)
			havePending = false
		}
	}
	if havePending {
		// odd trailing nibble: left-justified per spec.md §4.2.
		out = append(out, pending<<4)
	}
	return Token{Kind: StringHex, Value: string(out)}, nil
}

func (tk *Tokenizer) lexLiteralString() (Token, error) {
	var out []byte
	nesting := 0
	for {
		ch, ok := tk.read()
		if !ok {
			return Token{}, model.NewParseError(int64(tk.pos), fmt.Errorf("unterminated literal string"))
		}
		switch ch {
		case '(':
			nesting++
			if nesting > MaxNestingDepth {
				return Token{}, model.NewParseError(int64(tk.pos), fmt.Errorf("literal string nesting exceeds %d", MaxNestingDepth))
			}
			out = append(out, ch)
		case ')':
			if nesting == 0 {
				return Token{Kind: StringLiteral, Value: string(out)}, nil
			}
			nesting--
			out = append(out, ch)
		case '\\':
			b, ok2, err := tk.lexEscape()
			if err != nil {
				return Token{}, err
			}
			if ok2 {
				out = append(out, b)
			}
		case '\r':
			nxt, ok2 := tk.read()
			if ok2 && nxt != '\n' {
				tk.pos--
			}
			out = append(out, '\n')
		default:
			out = append(out, ch)
		}
	}
}

// lexEscape reads the character(s) following a backslash inside a literal
// string. ok is false for a line-continuation escape (backslash-EOL), which
// contributes no byte to the string.
func (tk *Tokenizer) lexEscape() (byte, bool, error) {
	ch, ok := tk.read()
	if !ok {
		return 0, false, model.NewParseError(int64(tk.pos), fmt.Errorf("unterminated escape in literal string"))
	}
	switch ch {
	case 'n':
		return '\n', true, nil
	case 'r':
		return '\r', true, nil
	case 't':
		return '\t', true, nil
	case 'b':
		return '\b', true, nil
	case 'f':
		return '\f', true, nil
	case '(', ')', '\\':
		return ch, true, nil
	case '\r':
		nxt, ok2 := tk.read()
		if ok2 && nxt != '\n' {
			tk.pos--
		}
		return 0, false, nil
	case '\n':
		return 0, false, nil
	default:
		if ch < '0' || ch > '7' {
			// not a recognized escape: PDF says the backslash is ignored
			// and the following char is taken literally.
			return ch, true, nil
		}
		octal := int(ch - '0')
		for i := 0; i < 2; i++ {
			d, ok2 := tk.read()
			if !ok2 || d < '0' || d > '7' {
				if ok2 {
					tk.pos--
				}
				break
			}
			octal = (octal << 3) + int(d-'0')
		}
		return byte(octal % 256), true, nil
	}
}

// readNumber attempts to lex an Integer or Real starting at the current
// position, restoring the position and returning ok=false if the bytes
// don't form a number (so the caller falls back to lexKeyword).
func (tk *Tokenizer) readNumber() (Token, bool) {
	marked := tk.pos
	var sb strings.Builder

	c, ok := tk.read()
	if !ok {
		tk.pos = marked
		return Token{}, false
	}
	if c == '+' || c == '-' {
		sb.WriteByte(c)
		c, ok = tk.read()
	}

	hasDigit := false
	for ok && isDigit(c) {
		sb.WriteByte(c)
		c, ok = tk.read()
		hasDigit = true
	}

	if ok && c == '.' {
		sb.WriteByte(c)
		for {
			c, ok = tk.read()
			if !ok || !isDigit(c) {
				break
			}
			sb.WriteByte(c)
			hasDigit = true
		}
		if !hasDigit {
			tk.pos = marked
			return Token{}, false
		}
		if ok {
			tk.pos--
		}
		return Token{Kind: Real, Value: sb.String()}, true
	}

	if !hasDigit {
		tk.pos = marked
		return Token{}, false
	}
	if ok {
		tk.pos--
	}
	return Token{Kind: Integer, Value: sb.String()}, true
}

func (tk *Tokenizer) lexKeyword() (Token, error) {
	var out []byte
	ch, ok := tk.read()
	if !ok {
		return Token{Kind: EOF}, nil
	}
	out = append(out, ch)
	for {
		ch, ok = tk.read()
		if !ok || isDelimiter(ch) {
			break
		}
		out = append(out, ch)
	}
	if ok {
		tk.pos--
	}
	return Token{Kind: Keyword, Value: string(out)}, nil
}
