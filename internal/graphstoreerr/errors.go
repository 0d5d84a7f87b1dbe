// Package graphstoreerr provides the typed error kinds used across the
// module (spec §7). It is grounded on the teacher's pkg/errors: a single
// concrete type carrying a Kind, a message and an optional cause, with
// Is*/Unwrap helpers so callers can branch on kind without type switches.
package graphstoreerr

import "fmt"

// Kind categorises an error per spec §7.
type Kind string

const (
	// KindConfig marks a fatal configuration error at initialisation.
	KindConfig Kind = "CONFIG"
	// KindSchema marks an invalid or inconsistent schema, fatal at init.
	KindSchema Kind = "SCHEMA"
	// KindCodec marks a single element failing to encode/decode; callers
	// must log and skip rather than abort a batch.
	KindCodec Kind = "CODEC"
	// KindStore marks tablet-engine connectivity/auth failure.
	KindStore Kind = "STORE"
	// KindOperation marks an unsupported operation or invalid view/chain.
	KindOperation Kind = "OPERATION"
	// KindIteratorConfig marks failure to serialise schema/view into an
	// iterator's configuration.
	KindIteratorConfig Kind = "ITERATOR_CONFIG"
)

// Error is the module's error type for all six categories in spec §7.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func newErr(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func Config(format string, args ...interface{}) *Error  { return newErr(KindConfig, format, args...) }
func Schema(format string, args ...interface{}) *Error  { return newErr(KindSchema, format, args...) }
func Operation(format string, args ...interface{}) *Error {
	return newErr(KindOperation, format, args...)
}
func IteratorConfig(format string, args ...interface{}) *Error {
	return newErr(KindIteratorConfig, format, args...)
}

func WrapCodec(cause error, format string, args ...interface{}) *Error {
	return wrap(KindCodec, cause, format, args...)
}
func WrapStore(cause error, format string, args ...interface{}) *Error {
	return wrap(KindStore, cause, format, args...)
}
func WrapConfig(cause error, format string, args ...interface{}) *Error {
	return wrap(KindConfig, cause, format, args...)
}
func WrapSchema(cause error, format string, args ...interface{}) *Error {
	return wrap(KindSchema, cause, format, args...)
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}

func IsCodec(err error) bool          { return Is(err, KindCodec) }
func IsStore(err error) bool          { return Is(err, KindStore) }
func IsOperation(err error) bool      { return Is(err, KindOperation) }
func IsConfig(err error) bool         { return Is(err, KindConfig) }
func IsSchema(err error) bool         { return Is(err, KindSchema) }
func IsIteratorConfig(err error) bool { return Is(err, KindIteratorConfig) }
