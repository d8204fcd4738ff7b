package platformerr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// Error taxonomy for platform calls. The retry and fallback policies key off
// these three classes:
//
//   - TransientError: network failure or rate limit; retry with backoff.
//   - PermissionError: the bot lacks capability; try the next fallback step.
//   - NotFoundError: the target vanished; treat as already resolved.

type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient platform error during %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

type PermissionError struct {
	Op      string
	Missing string
}

func (e *PermissionError) Error() string {
	if e.Missing != "" {
		return fmt.Sprintf("missing permission for %s: %s", e.Op, e.Missing)
	}
	return fmt.Sprintf("missing permission for %s", e.Op)
}

type NotFoundError struct {
	Op string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("target not found during %s", e.Op)
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

func IsPermission(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// Discord error codes that mean the target no longer exists.
const (
	codeUnknownMember  = 10007
	codeUnknownChannel = 10003
	codeUnknownRole    = 10011
	codeUnknownBan     = 10026
	codeMissingPerms   = 50013
	codeMissingAccess  = 50001
)

// ClassifyError maps a discordgo REST error (or a raw transport error) into
// the taxonomy. Unrecognized failures are treated as transient so the caller
// retries rather than giving up on something recoverable.
func ClassifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsTransient(err) || IsPermission(err) || IsNotFound(err) {
		return err
	}

	var rest *discordgo.RESTError
	if errors.As(err, &rest) {
		if rest.Message != nil {
			switch rest.Message.Code {
			case codeMissingPerms, codeMissingAccess:
				return &PermissionError{Op: op, Missing: rest.Message.Message}
			case codeUnknownMember, codeUnknownChannel, codeUnknownRole, codeUnknownBan:
				return &NotFoundError{Op: op}
			}
		}
		if rest.Response != nil {
			switch {
			case rest.Response.StatusCode == http.StatusForbidden:
				return &PermissionError{Op: op}
			case rest.Response.StatusCode == http.StatusNotFound:
				return &NotFoundError{Op: op}
			case rest.Response.StatusCode == http.StatusTooManyRequests,
				rest.Response.StatusCode >= 500:
				return &TransientError{Op: op, Err: err}
			}
		}
	}

	return &TransientError{Op: op, Err: err}
}

// ClassifyStatus maps a bare HTTP status code from the fasthttp dispatcher
// into the taxonomy.
func ClassifyStatus(op string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusForbidden:
		return &PermissionError{Op: op}
	case status == http.StatusNotFound:
		return &NotFoundError{Op: op}
	case status == http.StatusTooManyRequests, status >= 500:
		return &TransientError{Op: op, Err: fmt.Errorf("status %d", status)}
	default:
		return &TransientError{Op: op, Err: fmt.Errorf("unexpected status %d", status)}
	}
}
