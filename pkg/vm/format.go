package vm

import (
	"strconv"
	"strings"

	"github.com/wmedrano/spore/pkg/value"
)

// FormatValue renders v the way the reader's grammar would parse it back,
// satisfying spec.md 8's round-trip property for canonical values. Lists
// and strings borrow from the VM's own object manager and interner.
func (v *VM) FormatValue(val value.Value) string {
	switch val.Tag() {
	case value.TagVoid:
		return "void"
	case value.TagBool:
		if val.AsBool() {
			return "true"
		}
		return "false"
	case value.TagInt:
		return strconv.FormatInt(val.AsInt(), 10)
	case value.TagFloat:
		return formatFloat(val.AsFloat())
	case value.TagString:
		obj, ok := v.mgr.GetString(val)
		if !ok {
			return "<stale-string>"
		}
		return formatString(obj.Bytes)
	case value.TagSymbol:
		sym := val.AsSymbol()
		name, ok := v.interner.Resolve(sym.ID)
		if !ok {
			name = "<unknown-symbol>"
		}
		return strings.Repeat("'", int(sym.Quotes)) + name
	case value.TagKey:
		name, ok := v.interner.Resolve(val.AsKey())
		if !ok {
			name = "<unknown-key>"
		}
		return ":" + name
	case value.TagList:
		obj, ok := v.mgr.GetList(val)
		if !ok {
			return "<stale-list>"
		}
		parts := make([]string, len(obj.Items))
		for i, item := range obj.Items {
			parts[i] = v.FormatValue(item)
		}
		return "(" + strings.Join(parts, " ") + ")"
	case value.TagNativeFunction:
		return "<native " + val.AsNativeFunction().Name + ">"
	case value.TagBytecodeFunction:
		obj, ok := v.mgr.GetBytecodeFunction(val)
		if !ok {
			return "<stale-bytecode-function>"
		}
		if obj.Name == "" {
			return "<bytecode-function anonymous>"
		}
		return "<bytecode-function " + obj.Name + ">"
	default:
		return "<unknown>"
	}
}

// formatFloat renders a finite f so that reading it back parses as a Float
// rather than an Int: strconv's shortest representation omits the decimal
// point for whole numbers, so one is appended when missing. Inf and NaN
// are rendered by strconv as is and read back as symbols.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") { // "n"/"N" catches Inf/NaN spellings
		s += ".0"
	}
	return s
}

// formatString quotes bytes and escapes the characters the reader's
// tokenizer requires escaped to read the result back as the same string.
func formatString(bytes []byte) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, c := range bytes {
		if c == '"' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('"')
	return b.String()
}
