package value

import "fmt"

// ErrorKind classifies a Spore error. The same Error type is used for
// reader, compile, and runtime failures so that the host always gets back
// one error shape from VM.Evaluate regardless of which pipeline stage
// failed.
type ErrorKind uint8

const (
	KindBadString ErrorKind = iota
	KindEmptyAtom
	KindEmptyKey
	KindEmptySymbol
	KindTooManyQuotes
	KindUnexpectedCloseParen

	KindBadArg
	KindBadDefine
	KindBadFunction
	KindBadIf
	KindBadWhen
	KindExpectedIdentifier
	KindUnexpectedEmptyExpression

	KindExpectedFunction
	KindSymbolNotFound
	KindStackOverflow
	KindStackFrameUnderflow
	KindWrongArity
	KindWrongType
	KindObjectNotFound
	KindValueAlreadyDefined

	KindAllocationFailure
)

var kindNames = map[ErrorKind]string{
	KindBadString:                 "bad-string",
	KindEmptyAtom:                 "empty-atom",
	KindEmptyKey:                  "empty-key",
	KindEmptySymbol:               "empty-symbol",
	KindTooManyQuotes:             "too-many-quotes",
	KindUnexpectedCloseParen:      "unexpected-close-paren",
	KindBadArg:                    "bad-arg",
	KindBadDefine:                 "bad-define",
	KindBadFunction:               "bad-function",
	KindBadIf:                     "bad-if",
	KindBadWhen:                   "bad-when",
	KindExpectedIdentifier:        "expected-identifier",
	KindUnexpectedEmptyExpression: "unexpected-empty-expression",
	KindExpectedFunction:          "expected-function",
	KindSymbolNotFound:            "symbol-not-found",
	KindStackOverflow:             "stack-overflow",
	KindStackFrameUnderflow:       "stack-frame-underflow",
	KindWrongArity:                "wrong-arity",
	KindWrongType:                 "wrong-type",
	KindObjectNotFound:            "object-not-found",
	KindValueAlreadyDefined:       "value-already-defined",
	KindAllocationFailure:         "allocation-failure",
}

// String returns the kebab-case kind name used throughout spec.md's error
// taxonomy (e.g. "wrong-type", "symbol-not-found").
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown-error"
}

// CallFrame is one entry of the call-stack snapshot attached to a runtime
// Error, recording where in the call chain the error surfaced.
type CallFrame struct {
	Name string // "<native NAME>" of a native call the error passed through
}

// Error is the single error type produced anywhere in the Spore pipeline:
// reading, macro expansion, compiling, or running. Kind identifies which
// of spec.md's error kinds applies; Message is a human-readable detail.
type Error struct {
	Kind    ErrorKind
	Message string
	Stack   []CallFrame
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError builds an *Error of the given kind with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithFrame returns a copy of e with frame appended to its call-stack
// snapshot, used as a runtime error unwinds out of a native call, so the
// innermost frame comes first. Bytecode frames are not recorded.
func (e *Error) WithFrame(name string) *Error {
	stack := make([]CallFrame, len(e.Stack), len(e.Stack)+1)
	copy(stack, e.Stack)
	stack = append(stack, CallFrame{Name: name})
	return &Error{Kind: e.Kind, Message: e.Message, Stack: stack}
}
