package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the erasure pipeline the error occurred
type Phase string

const (
	PhaseDeclare  Phase = "declare"  // operation/signature declaration
	PhaseCompose  Phase = "compose"  // concept composition (requires/refinement)
	PhaseRegister Phase = "register" // concept map registration
	PhaseResolve  Phase = "resolve"  // concept map resolution for a concrete type
	PhaseBuild    Phase = "build"    // vtable construction
	PhaseStorage  Phase = "storage"  // value placement and lifecycle
	PhaseInvoke   Phase = "invoke"   // dispatching an operation on an erased value
)

// Kind categorizes the error
type Kind string

const (
	KindSignatureConflict    Kind = "signature_conflict"
	KindMissingOperation     Kind = "missing_operation"
	KindUnknownOperation     Kind = "unknown_operation"
	KindNotAFunction         Kind = "not_a_function"
	KindSelfMissing          Kind = "self_missing"
	KindTypeMismatch         Kind = "type_mismatch"
	KindArityMismatch        Kind = "arity_mismatch"
	KindIncompatibleCategory Kind = "incompatible_category"
	KindIncomparable         Kind = "incomparable"
	KindNotInitialized       Kind = "not_initialized"
	KindInvalidInput         Kind = "invalid_input"
	KindRegistration         Kind = "registration"
	KindDuplicate            Kind = "duplicate"
)

// Error is the structured error type used throughout the library
type Error struct {
	Cause   error
	Phase   Phase
	Kind    Kind
	Op      string // named operation involved, if any
	Concept string // concept name involved, if any
	GoType  string // concrete Go type involved, if any
	Detail  string
	Path    []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Concept != "" {
		b.WriteString(": concept ")
		b.WriteString(e.Concept)
	}
	if e.Op != "" {
		if e.Concept != "" {
			b.WriteString(", operation ")
		} else {
			b.WriteString(": operation ")
		}
		b.WriteString(fmt.Sprintf("%q", e.Op))
	}
	if e.GoType != "" {
		if e.Concept != "" || e.Op != "" {
			b.WriteString(", Go type ")
		} else {
			b.WriteString(": Go type ")
		}
		b.WriteString(e.GoType)
	}

	if e.Detail != "" {
		if e.Concept != "" || e.Op != "" || e.GoType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the context path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Op sets the named operation
func (b *Builder) Op(name string) *Builder {
	b.err.Op = name
	return b
}

// Concept sets the concept name
func (b *Builder) Concept(name string) *Builder {
	b.err.Concept = name
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// SignatureConflict reports two declarations of the same operation name
// with different signatures.
func SignatureConflict(phase Phase, conceptName, op, sigA, sigB string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindSignatureConflict,
		Concept: conceptName,
		Op:      op,
		Detail:  fmt.Sprintf("conflicting signatures %s and %s", sigA, sigB),
	}
}

// MissingOperation reports an operation required by a concept that no
// applicable concept map binds for the given type.
func MissingOperation(conceptName, op, goType string) *Error {
	return &Error{
		Phase:   PhaseResolve,
		Kind:    KindMissingOperation,
		Concept: conceptName,
		Op:      op,
		GoType:  goType,
		Detail:  "no binding after merging explicit and default concept maps",
	}
}

// UnknownOperation reports a dispatch against an operation name the
// wrapper's concept does not declare.
func UnknownOperation(conceptName, op string) *Error {
	return &Error{
		Phase:   PhaseInvoke,
		Kind:    KindUnknownOperation,
		Concept: conceptName,
		Op:      op,
		Detail:  "operation not declared by concept",
	}
}

// NotAFunction reports a binding value that is not callable.
func NotAFunction(phase Phase, op, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotAFunction,
		Op:     op,
		GoType: goType,
		Detail: "binding must be a function",
	}
}

// SelfMissing reports a declared signature with no erased-self parameter.
func SelfMissing(op, goType string) *Error {
	return &Error{
		Phase:  PhaseDeclare,
		Kind:   KindSelfMissing,
		Op:     op,
		GoType: goType,
		Detail: "signature must mention the erased self type at least once",
	}
}

// TypeMismatch reports a binding or argument whose type does not match the
// operation's declared signature.
func TypeMismatch(phase Phase, op, want, got string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Op:     op,
		Detail: fmt.Sprintf("want %s, got %s", want, got),
	}
}

// ArityMismatch reports a call or binding with the wrong parameter count.
func ArityMismatch(phase Phase, op string, want, got int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindArityMismatch,
		Op:     op,
		Detail: fmt.Sprintf("want %d arguments, got %d", want, got),
	}
}

// IncompatibleCategory reports a source capability weaker than the target
// interface requires.
func IncompatibleCategory(goType, source, target string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindIncompatibleCategory,
		GoType: goType,
		Detail: fmt.Sprintf("source category %s is weaker than target %s", source, target),
	}
}

// Incomparable reports a comparison between values erased under different
// concept map shapes.
func Incomparable(conceptName string) *Error {
	return &Error{
		Phase:   PhaseInvoke,
		Kind:    KindIncomparable,
		Concept: conceptName,
		Detail:  "operands were erased under different concept map shapes",
	}
}

// NotInitialized reports an operation on an empty, moved-from, or destroyed
// wrapper.
func NotInitialized(what string) *Error {
	return &Error{
		Phase:  PhaseInvoke,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", what),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Registration creates a registration error
func Registration(conceptName, op string, cause error) *Error {
	return &Error{
		Phase:   PhaseRegister,
		Kind:    KindRegistration,
		Concept: conceptName,
		Op:      op,
		Cause:   cause,
	}
}

// Duplicate reports a name registered twice where the registry forbids it.
func Duplicate(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDuplicate,
		Detail: fmt.Sprintf("%s %q already registered", what, name),
	}
}
