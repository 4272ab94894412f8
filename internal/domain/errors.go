package domain

import (
	"errors"
	"fmt"
)

// Category sentinels. Agent adapters wrap these so the dispatcher can
// classify failures without knowing any site's internals.
var (
	ErrNotFound     = fmt.Errorf("not found")
	ErrDuplicate    = fmt.Errorf("duplicate")
	ErrTimeout      = fmt.Errorf("operation timed out")
	ErrInvalidInput = fmt.Errorf("invalid input")

	// Per-agent failure sentinels.
	ErrNetwork     = fmt.Errorf("network error")
	ErrRateLimited = fmt.Errorf("rate limit exceeded")
	ErrParse       = fmt.Errorf("response parse failed")

	// Startup errors. These are fatal: the process never starts with a
	// malformed registry or gazetteer.
	ErrConfigLoad      = fmt.Errorf("failed to load configuration")
	ErrAgentNotFound   = fmt.Errorf("agent not found")
	ErrAgentDuplicate  = fmt.Errorf("agent already registered")
	ErrUnknownAgentRef = fmt.Errorf("configuration references unknown agent")
	ErrDecryption      = fmt.Errorf("decryption failed")

	// Audit store errors. Never propagated into search results.
	ErrAuditWrite = fmt.Errorf("audit log write failed")
)

// DomainError wraps a sentinel error with operation context.
type DomainError struct {
	Op     string // operation name (e.g., "Registry.Build")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ErrorCode is a machine-parseable error category for monitoring and alerting.
type ErrorCode string

const (
	CodeUnknown         ErrorCode = "UNKNOWN"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeDuplicate       ErrorCode = "DUPLICATE"
	CodeTimeout         ErrorCode = "TIMEOUT"
	CodeInvalidInput    ErrorCode = "INVALID_INPUT"
	CodeNetwork         ErrorCode = "NETWORK"
	CodeRateLimited     ErrorCode = "RATE_LIMITED"
	CodeParse           ErrorCode = "PARSE"
	CodeConfigLoad      ErrorCode = "CONFIG_LOAD"
	CodeAgentNotFound   ErrorCode = "AGENT_NOT_FOUND"
	CodeAgentDuplicate  ErrorCode = "AGENT_DUPLICATE"
	CodeUnknownAgentRef ErrorCode = "UNKNOWN_AGENT_REF"
	CodeDecryption      ErrorCode = "DECRYPTION"
	CodeAuditWrite      ErrorCode = "AUDIT_WRITE"
)

// errorCodeMap maps sentinel errors to their machine-parseable codes.
var errorCodeMap = map[error]ErrorCode{
	ErrNotFound:        CodeNotFound,
	ErrDuplicate:       CodeDuplicate,
	ErrTimeout:         CodeTimeout,
	ErrInvalidInput:    CodeInvalidInput,
	ErrNetwork:         CodeNetwork,
	ErrRateLimited:     CodeRateLimited,
	ErrParse:           CodeParse,
	ErrConfigLoad:      CodeConfigLoad,
	ErrAgentNotFound:   CodeAgentNotFound,
	ErrAgentDuplicate:  CodeAgentDuplicate,
	ErrUnknownAgentRef: CodeUnknownAgentRef,
	ErrDecryption:      CodeDecryption,
	ErrAuditWrite:      CodeAuditWrite,
}

// ErrorCodeOf returns the machine-parseable error code for the given error.
// It unwraps DomainError and uses errors.Is to match sentinel errors.
// Returns CodeUnknown if no matching sentinel is found.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}

	if code, ok := errorCodeMap[err]; ok {
		return code
	}

	var de *DomainError
	if errors.As(err, &de) {
		if code, ok := errorCodeMap[de.Err]; ok {
			return code
		}
	}

	for sentinel, code := range errorCodeMap {
		if errors.Is(err, sentinel) {
			return code
		}
	}

	return CodeUnknown
}
