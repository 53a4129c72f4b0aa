package calc

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// Kind is the kind of failure reported by the calculator. The set of kinds is
// closed.
type Kind int8

const (
	UnknownError Kind = iota
	SyntaxError
	InputTooBig
	CallingNonexistentVariable
	CannotCreateVariablesWithNameConstant
	DivisionByZero
	IncorrectNumberOfArguments
	ImpossibleToExtractRootCorrectly
	MathError
	CannotOpenFileWithText
)

var kindNames = [...]string{
	UnknownError:                          "UnknownError",
	SyntaxError:                           "SyntaxError",
	InputTooBig:                           "InputTooBig",
	CallingNonexistentVariable:            "CallingNonexistentVariable",
	CannotCreateVariablesWithNameConstant: "CannotCreateVariablesWithNameConstant",
	DivisionByZero:                        "DivisionByZero",
	IncorrectNumberOfArguments:            "IncorrectNumberOfArguments",
	ImpossibleToExtractRootCorrectly:      "ImpossibleToExtractRootCorrectly",
	MathError:                             "MathError",
	CannotOpenFileWithText:                "CannotOpenFileWithText",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// kindNamed gets the kind with the given name. The second result is false if
// there is no such kind.
func kindNamed(name string) (Kind, bool) {
	for k, s := range kindNames {
		if s == name {
			return Kind(k), true
		}
	}
	return UnknownError, false
}

// Error is a failure to parse or evaluate a line. It implements InputError.
type Error struct {
	// Kind is the kind of failure.
	Kind Kind
	// Name is the variable name for CallingNonexistentVariable or the file
	// path for CannotOpenFileWithText.
	Name string
	// Found and Expected are the argument counts for
	// IncorrectNumberOfArguments.
	Found, Expected int
	// Col is the position of the token that caused a syntax error, or 0 if
	// the position is unknown.
	Col int
	// Detail optionally describes a syntax error further.
	Detail string
}

func (err *Error) Error() string {
	var msg string
	switch err.Kind {
	case SyntaxError:
		msg = "Syntax error"
		if err.Detail != "" {
			msg += ": " + err.Detail
		}
		if err.Col > 0 {
			return errpos(err.Col, msg)
		}
		return msg
	case InputTooBig:
		msg = "Input too big"
	case CallingNonexistentVariable:
		msg = "Calling nonexistent variable: " + err.Name
	case CannotCreateVariablesWithNameConstant:
		msg = "Cannot create a variable with the name of a constant"
	case DivisionByZero:
		msg = "Division by zero"
	case IncorrectNumberOfArguments:
		msg = "Incorrect number of arguments: expected " + strconv.Itoa(err.Expected) + ", found " + strconv.Itoa(err.Found)
	case ImpossibleToExtractRootCorrectly:
		msg = "Impossible to extract root correctly"
	case MathError:
		msg = "Math error"
	case CannotOpenFileWithText:
		msg = "Cannot open file with text: " + err.Name
	default:
		msg = "Unknown error"
	}
	return msg
}

// Is reports whether target is an *Error of the same kind, so that errors.Is
// works with the sentinel errors.
func (err *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == err.Kind
}

func (err *Error) Pos() int {
	return err.Col
}

// Sentinel errors for use with errors.Is. They match any *Error of the same
// kind regardless of its details.
var (
	ErrUnknown            = &Error{Kind: UnknownError}
	ErrSyntax             = &Error{Kind: SyntaxError}
	ErrInputTooBig        = &Error{Kind: InputTooBig}
	ErrNonexistentVar     = &Error{Kind: CallingNonexistentVariable}
	ErrConstantName       = &Error{Kind: CannotCreateVariablesWithNameConstant}
	ErrDivisionByZero     = &Error{Kind: DivisionByZero}
	ErrArgCount           = &Error{Kind: IncorrectNumberOfArguments}
	ErrRoot               = &Error{Kind: ImpossibleToExtractRootCorrectly}
	ErrMath               = &Error{Kind: MathError}
	ErrCannotOpenTextFile = &Error{Kind: CannotOpenFileWithText}
)

// newError creates an error of the given kind with no details.
func newError(k Kind) *Error {
	return &Error{Kind: k}
}

func syntaxError(col int, detail string) *Error {
	return &Error{Kind: SyntaxError, Col: col, Detail: detail}
}

// NonexistentVariable creates a CallingNonexistentVariable error.
func NonexistentVariable(name string) *Error {
	return &Error{Kind: CallingNonexistentVariable, Name: name}
}

// ArgCount creates an IncorrectNumberOfArguments error.
func ArgCount(found, expected int) *Error {
	return &Error{Kind: IncorrectNumberOfArguments, Found: found, Expected: expected}
}

// CannotOpenFile creates a CannotOpenFileWithText error.
func CannotOpenFile(path string) *Error {
	return &Error{Kind: CannotOpenFileWithText, Name: path}
}

// MarshalJSON encodes the error as an externally tagged variant: kinds without
// data are bare strings and kinds with data are single-key objects. Positions
// and details of syntax errors are not kept.
func (err *Error) MarshalJSON() ([]byte, error) {
	switch err.Kind {
	case CallingNonexistentVariable, CannotOpenFileWithText:
		return json.Marshal(map[string]string{err.Kind.String(): err.Name})
	case IncorrectNumberOfArguments:
		return json.Marshal(map[string][2]int{err.Kind.String(): {err.Found, err.Expected}})
	default:
		return json.Marshal(err.Kind.String())
	}
}

// UnmarshalJSON decodes an error written by MarshalJSON.
func (err *Error) UnmarshalJSON(b []byte) error {
	var s string
	if json.Unmarshal(b, &s) == nil {
		k, ok := kindNamed(s)
		if !ok {
			return fmt.Errorf("calc: unknown error kind %q", s)
		}
		*err = Error{Kind: k}
		return nil
	}
	var m map[string]json.RawMessage
	if e := json.Unmarshal(b, &m); e != nil {
		return e
	}
	if len(m) != 1 {
		return fmt.Errorf("calc: error variant must have exactly one key, not %d", len(m))
	}
	for name, raw := range m {
		k, ok := kindNamed(name)
		if !ok {
			return fmt.Errorf("calc: unknown error kind %q", name)
		}
		*err = Error{Kind: k}
		switch k {
		case CallingNonexistentVariable, CannotOpenFileWithText:
			return json.Unmarshal(raw, &err.Name)
		case IncorrectNumberOfArguments:
			var v [2]int
			if e := json.Unmarshal(raw, &v); e != nil {
				return e
			}
			err.Found, err.Expected = v[0], v[1]
		}
	}
	return nil
}

// errpos is a shortcut to create an error message with a position.
func errpos(pos int, msg string) string {
	return strconv.Itoa(pos) + ": " + msg
}

// InputError is an error with position information. Syntax errors from the
// parser implement InputError.
type InputError interface {
	error
	// Pos returns the position of the error as the number of runes up to and
	// including the start of the token that caused the error, or 0 if the
	// position is unknown.
	Pos() int
}

var _ InputError = (*Error)(nil)
