package templates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tracekit/tracekit-go/contracts"
)

// Placeholders recognized inside message templates.
const (
	// PlaceholderOperation is replaced with the name of the operation
	// being invoked.
	PlaceholderOperation = "$[operation]"

	// PlaceholderTargetType is replaced with the qualified name of the
	// invocation target's type.
	PlaceholderTargetType = "$[targetType]"

	// PlaceholderTargetTypeShort is replaced with the short name of the
	// invocation target's type.
	PlaceholderTargetTypeShort = "$[targetTypeShort]"

	// PlaceholderArgumentTypes is replaced with a comma-separated list of
	// the short type names of the operation's parameters.
	PlaceholderArgumentTypes = "$[argumentTypes]"

	// PlaceholderArguments is replaced with a comma-separated list of the
	// string renderings of the argument values.
	PlaceholderArguments = "$[arguments]"

	// PlaceholderReturnValue is replaced with the string rendering of the
	// invocation's return value, "void" for void operations and "null"
	// for a nil result.
	PlaceholderReturnValue = "$[returnValue]"

	// PlaceholderError is replaced with the string form of the error
	// raised during the invocation.
	PlaceholderError = "$[error]"

	// PlaceholderElapsedTime is replaced with the invocation's elapsed
	// time in integer milliseconds.
	PlaceholderElapsedTime = "$[elapsedTime]"
)

// Default and detailed message texts per phase.
const (
	DefaultEnterMessage = PlaceholderTargetType + "." + PlaceholderOperation + "(..) invoke start..."
	DetailEnterMessage  = PlaceholderTargetType + "." + PlaceholderOperation + "(" + PlaceholderArgumentTypes + ") with arguments (" + PlaceholderArguments + ") invoke start..."

	DefaultExitMessage = PlaceholderTargetType + "." + PlaceholderOperation + "(..) invoke end... " + PlaceholderElapsedTime + "ms"
	DetailExitMessage  = PlaceholderTargetType + "." + PlaceholderOperation + "(" + PlaceholderArgumentTypes + ") with arguments (" + PlaceholderArguments + ") invoke end... " + PlaceholderElapsedTime + "ms"

	DefaultErrorMessage = PlaceholderTargetType + "." + PlaceholderOperation + "(..) invoke thrown error... " + PlaceholderElapsedTime + "ms"
	DetailErrorMessage  = PlaceholderTargetType + "." + PlaceholderOperation + "(" + PlaceholderArgumentTypes + ") with arguments (" + PlaceholderArguments + ") invoke thrown error... " + PlaceholderElapsedTime + "ms"
)

// ElapsedUnknown is the elapsed-time sentinel for the enter phase, where the
// invocation time is not yet known.
const ElapsedUnknown int64 = -1

var placeholderPattern = regexp.MustCompile(`\$\[[a-zA-Z]+\]`)

var allowedPlaceholders = map[string]bool{
	PlaceholderOperation:       true,
	PlaceholderTargetType:      true,
	PlaceholderTargetTypeShort: true,
	PlaceholderArgumentTypes:   true,
	PlaceholderArguments:       true,
	PlaceholderReturnValue:     true,
	PlaceholderError:           true,
	PlaceholderElapsedTime:     true,
}

// Kind identifies the phase a template is written for. Each kind forbids the
// placeholders whose values cannot exist in that phase.
type Kind int

const (
	// EnterKind templates run before the invocation: no return value,
	// error, or elapsed time yet.
	EnterKind Kind = iota

	// ExitKind templates run after a successful invocation: no error.
	ExitKind

	// ErrorKind templates run after a failed invocation: no return value.
	ErrorKind
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case EnterKind:
		return "enter"
	case ExitKind:
		return "exit"
	case ErrorKind:
		return "error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

var forbiddenByKind = map[Kind][]string{
	EnterKind: {PlaceholderReturnValue, PlaceholderError, PlaceholderElapsedTime},
	ExitKind:  {PlaceholderError},
	ErrorKind: {PlaceholderReturnValue},
}

// Template is a validated message template for one phase. Validation happens
// exactly once, here; expansion never fails.
type Template struct {
	kind Kind
	text string
}

// New validates and builds a template. Unknown placeholders and placeholders
// forbidden for the kind are rejected with a descriptive error.
func New(kind Kind, text string) (*Template, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%s template must not be empty", kind)
	}
	for _, match := range placeholderPattern.FindAllString(text, -1) {
		if !allowedPlaceholders[match] {
			return nil, fmt.Errorf("placeholder %s is not valid", match)
		}
	}
	for _, forbidden := range forbiddenByKind[kind] {
		if strings.Contains(text, forbidden) {
			return nil, fmt.Errorf("%s template cannot contain placeholder %s", kind, forbidden)
		}
	}
	return &Template{kind: kind, text: text}, nil
}

// Kind returns the phase the template was validated for.
func (t *Template) Kind() Kind { return t.kind }

// Text returns the raw template text.
func (t *Template) Text() string { return t.text }

// Context carries the values a template expansion can draw on. ElapsedMillis
// is ElapsedUnknown for the enter phase.
type Context struct {
	Target        contracts.TypeRef
	Operation     contracts.Operation
	Args          []interface{}
	ReturnValue   interface{}
	Err           error
	ElapsedMillis int64
}

func (c Context) owner() contracts.TypeRef {
	if c.Target.IsZero() {
		return c.Operation.Declaring
	}
	return c.Target
}

// Expand substitutes every placeholder in the template with the value from
// the context.
func (t *Template) Expand(ctx Context) string {
	return placeholderPattern.ReplaceAllStringFunc(t.text, func(match string) string {
		switch match {
		case PlaceholderOperation:
			return ctx.Operation.Name
		case PlaceholderTargetType:
			return ctx.owner().Qualified
		case PlaceholderTargetTypeShort:
			return ctx.owner().Short()
		case PlaceholderArguments:
			return renderArguments(ctx.Args)
		case PlaceholderArgumentTypes:
			return renderArgumentTypes(ctx.Operation.Params)
		case PlaceholderReturnValue:
			return renderReturnValue(ctx.Operation, ctx.ReturnValue)
		case PlaceholderError:
			if ctx.Err == nil {
				return ""
			}
			return ctx.Err.Error()
		case PlaceholderElapsedTime:
			return strconv.FormatInt(ctx.ElapsedMillis, 10)
		default:
			// Unreachable: placeholders are validated in New.
			return match
		}
	})
}

func renderArguments(args []interface{}) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = fmt.Sprintf("%v", arg)
	}
	return strings.Join(parts, ",")
}

func renderArgumentTypes(params []string) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = contracts.TypeRef{Qualified: p}.Short()
	}
	return strings.Join(parts, ",")
}

// renderReturnValue distinguishes void operations from nil results: a void
// operation renders "void", a value-returning operation with a nil result
// renders "null".
func renderReturnValue(op contracts.Operation, returnValue interface{}) string {
	if !op.ReturnsValue() {
		return "void"
	}
	if returnValue == nil {
		return "null"
	}
	return fmt.Sprintf("%v", returnValue)
}
