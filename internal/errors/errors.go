// Package errors provides centralized error handling with categories and
// structured context for the import and caching pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"
)

// ErrorCategory represents the type of error for better categorization
type ErrorCategory string

const (
	CategoryValidation    ErrorCategory = "validation"
	CategoryFileIO        ErrorCategory = "file-io"
	CategoryFileParsing   ErrorCategory = "file-parsing"
	CategoryNetwork       ErrorCategory = "network"
	CategoryDatabase      ErrorCategory = "database"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryImageFetch    ErrorCategory = "image-fetch"
	CategoryImageDecode   ErrorCategory = "image-decode"
	CategoryImageCache    ErrorCategory = "image-cache"
	CategoryImport        ErrorCategory = "import"
	CategoryArchive       ErrorCategory = "archive"
	CategoryCompression   ErrorCategory = "compression"
	CategoryNotFound      ErrorCategory = "not-found"
	CategoryState         ErrorCategory = "state"
	CategoryCancellation  ErrorCategory = "cancellation"
	CategoryGeneric       ErrorCategory = "generic"
)

// ComponentUnknown is used when the component cannot be determined.
const ComponentUnknown = "unknown"

// EnhancedError wraps an error with a category, originating component and
// free-form context data.
type EnhancedError struct {
	Err       error          // Original error
	Category  ErrorCategory  // Error category for better grouping
	Context   map[string]any // Additional context data
	Timestamp time.Time      // When the error occurred
	component string         // Component where the error occurred (lazily detected)
	detected  bool
	mu        sync.Mutex
}

// Error implements the error interface
func (ee *EnhancedError) Error() string {
	return ee.Err.Error()
}

// Unwrap implements the error unwrapping interface
func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// Is matches other EnhancedErrors by category, otherwise defers to the
// wrapped error chain.
func (ee *EnhancedError) Is(target error) bool {
	var other *EnhancedError
	if stderrors.As(target, &other) {
		return ee.Category == other.Category
	}
	return stderrors.Is(ee.Err, target)
}

// GetComponent returns the component name, detecting it lazily if needed.
func (ee *EnhancedError) GetComponent() string {
	ee.mu.Lock()
	defer ee.mu.Unlock()
	if !ee.detected {
		ee.component = detectComponent()
		if ee.component == "" {
			ee.component = ComponentUnknown
		}
		ee.detected = true
	}
	return ee.component
}

// GetCategory returns the error category as a string.
func (ee *EnhancedError) GetCategory() string {
	return string(ee.Category)
}

// GetContext returns a copy of the context data.
func (ee *EnhancedError) GetContext() map[string]any {
	if ee.Context == nil {
		return nil
	}
	out := make(map[string]any, len(ee.Context))
	for k, v := range ee.Context {
		out[k] = v
	}
	return out
}

// ErrorBuilder provides a fluent interface for creating enhanced errors
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New creates a new error builder wrapping err.
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Newf creates a new error builder from a formatted message.
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

// Component sets the component name (auto-detected if not set)
func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

// Category sets the error category for better grouping
func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Context adds context data to the error
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// FileContext adds file-specific context
func (eb *ErrorBuilder) FileContext(filePath string, fileSize int64) *ErrorBuilder {
	if filePath != "" {
		eb = eb.Context("file", filePath)
	}
	if fileSize > 0 {
		eb = eb.Context("file_size", fileSize)
	}
	return eb
}

// NetworkContext adds network-specific context
func (eb *ErrorBuilder) NetworkContext(url string, timeout time.Duration) *ErrorBuilder {
	if url != "" {
		eb = eb.Context("url", url)
	}
	if timeout > 0 {
		eb = eb.Context("timeout_seconds", timeout.Seconds())
	}
	return eb
}

// Timing adds performance timing context
func (eb *ErrorBuilder) Timing(operation string, duration time.Duration) *ErrorBuilder {
	eb = eb.Context("operation", operation)
	return eb.Context("duration_ms", duration.Milliseconds())
}

// Build creates the EnhancedError.
func (eb *ErrorBuilder) Build() *EnhancedError {
	category := eb.category
	if category == "" {
		category = CategoryGeneric
	}
	return &EnhancedError{
		Err:       eb.err,
		Category:  category,
		Context:   eb.context,
		Timestamp: time.Now(),
		component: eb.component,
		detected:  eb.component != "",
	}
}

// Component registry for call-stack based component detection.
var (
	componentRegistry = make(map[string]string)
	registryMutex     sync.RWMutex
)

// RegisterComponent registers a package path pattern with a component name
func RegisterComponent(packagePattern, componentName string) {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	componentRegistry[packagePattern] = componentName
}

func init() {
	RegisterComponent("datastore", "datastore")
	RegisterComponent("importer", "importer")
	RegisterComponent("imagecache", "imagecache")
	RegisterComponent("archive", "archive")
	RegisterComponent("conf", "configuration")
	RegisterComponent("textnorm", "textnorm")
	RegisterComponent("syncutil", "syncutil")
}

func lookupComponent(funcName string) string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	for pattern, component := range componentRegistry {
		if strings.Contains(funcName, "/internal/"+pattern) {
			return component
		}
	}
	return ""
}

// detectComponent walks the call stack to find the first frame belonging to
// a registered component package.
func detectComponent() string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.Function, "/internal/errors") {
			if component := lookupComponent(frame.Function); component != "" {
				return component
			}
		}
		if !more {
			return ""
		}
	}
}

// Convenience wrappers so callers do not need to import both this package
// and the standard errors package.

// NewStd creates a plain error without enhancement, for sentinel values.
func NewStd(text string) error {
	return stderrors.New(text)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Unwrap returns the result of calling Unwrap on err.
func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}

// Join wraps multiple errors into a single error.
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// IsCategory reports whether err carries the given category.
func IsCategory(err error, category ErrorCategory) bool {
	var ee *EnhancedError
	if As(err, &ee) {
		return ee.Category == category
	}
	return false
}

// IsNotFound reports whether err represents a not-found condition.
func IsNotFound(err error) bool {
	return IsCategory(err, CategoryNotFound)
}
