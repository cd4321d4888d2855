package reader

import (
	"strconv"
	"strings"

	"github.com/wmedrano/spore/pkg/intern"
	"github.com/wmedrano/spore/pkg/value"
)

// Reader assembles value.Value trees from a token stream, allocating
// String/List objects through a Manager and interning symbol/key names
// through an Interner.
type Reader struct {
	tok *Tokenizer
	mgr *value.Manager
	in  *intern.Interner
}

// New returns a Reader over src.
func New(src string, mgr *value.Manager, in *intern.Interner) *Reader {
	return &Reader{tok: NewTokenizer(src), mgr: mgr, in: in}
}

// Next reads and returns the next top-level expression. ok is false once
// the input is exhausted (not an error).
func (r *Reader) Next() (v value.Value, ok bool, err error) {
	tok, has := r.tok.Next()
	if !has {
		return value.Void, false, nil
	}
	v, err = r.readFrom(tok)
	if err != nil {
		return value.Void, false, err
	}
	return v, true, nil
}

// readFrom builds one value starting at an already-read token.
func (r *Reader) readFrom(tok Token) (value.Value, error) {
	switch tok.Kind {
	case KindCloseParen:
		return value.Void, value.NewError(value.KindUnexpectedCloseParen, "unexpected ')'")
	case KindOpenParen:
		return r.readList()
	default:
		return r.classifyAtom(tok.Text)
	}
}

// readList consumes tokens until a matching close paren, or until input
// ends (lenient: an unterminated list simply stops, per spec.md 4.4).
func (r *Reader) readList() (value.Value, error) {
	var items []value.Value
	for {
		tok, has := r.tok.Next()
		if !has {
			break
		}
		if tok.Kind == KindCloseParen {
			break
		}
		v, err := r.readFrom(tok)
		if err != nil {
			return value.Void, err
		}
		items = append(items, v)
	}
	return r.mgr.NewList(items), nil
}

// classifyAtom turns one atom's raw text into a Value, per the
// classification order in spec.md 4.4.
func (r *Reader) classifyAtom(text string) (value.Value, error) {
	if text == "" {
		return value.Void, value.NewError(value.KindEmptyAtom, "empty atom")
	}

	switch text {
	case "true":
		return value.Bool(true), nil
	case "false":
		return value.Bool(false), nil
	}

	if text[0] == '"' {
		return r.classifyString(text)
	}
	if text[0] == ':' {
		return r.classifyKey(text)
	}
	if iv, ok := parseInt(text); ok {
		return value.Int(iv), nil
	}
	if fv, ok := parseFloat(text); ok {
		return value.Float(fv), nil
	}
	return r.classifySymbol(text)
}

// classifyString decodes a string atom's escapes. text includes its
// surrounding quotes (or is missing a closing quote, which is bad-string).
func (r *Reader) classifyString(text string) (value.Value, error) {
	if len(text) < 2 || text[len(text)-1] != '"' {
		return value.Void, value.NewError(value.KindBadString, "unterminated string literal")
	}
	body := text[1 : len(text)-1]

	var out []byte
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' {
			if i+1 >= len(body) {
				return value.Void, value.NewError(value.KindBadString, "dangling escape at end of string")
			}
			out = append(out, body[i+1])
			i++
			continue
		}
		if body[i] == '"' {
			// An unescaped quote inside the body means the tokenizer's
			// scan and this decode disagree; treat as malformed.
			return value.Void, value.NewError(value.KindBadString, "unescaped quote inside string literal")
		}
		out = append(out, body[i])
	}
	return r.mgr.NewString(out), nil
}

// classifyKey handles a ":"-prefixed atom.
func (r *Reader) classifyKey(text string) (value.Value, error) {
	name := text[1:]
	if name == "" {
		return value.Void, value.NewError(value.KindEmptyKey, "empty key")
	}
	return value.KeyValue(r.in.Intern(name)), nil
}

// classifySymbol counts leading quotes and interns the remainder.
func (r *Reader) classifySymbol(text string) (value.Value, error) {
	quotes := 0
	for quotes < len(text) && text[quotes] == '\'' {
		quotes++
	}
	if quotes > 3 {
		return value.Void, value.NewError(value.KindTooManyQuotes, "symbol has more than 3 leading quotes")
	}
	name := text[quotes:]
	if name == "" {
		return value.Void, value.NewError(value.KindEmptySymbol, "empty symbol")
	}
	id := r.in.Intern(name)
	return value.SymbolValue(value.Symbol{Quotes: uint8(quotes), ID: id}), nil
}

func parseInt(text string) (int64, bool) {
	iv, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, false
	}
	return iv, true
}

func parseFloat(text string) (float64, bool) {
	// Reject forms strconv.ParseFloat accepts but that aren't intended as
	// numeric atoms here, such as bare "inf"/"nan" spellings, so they fall
	// through to symbol parsing instead of silently becoming floats.
	lower := strings.ToLower(text)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") {
		return 0, false
	}
	fv, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return fv, true
}
