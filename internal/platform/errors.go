package platform

import (
	"github.com/paprika2227/guildguard/internal/platform/platformerr"
)

// The error taxonomy lives in the leaf package platformerr so that both this
// package and the dispatcher can share it without an import cycle. The
// aliases below keep the platform API unchanged for callers.

type TransientError = platformerr.TransientError

type PermissionError = platformerr.PermissionError

type NotFoundError = platformerr.NotFoundError

func IsTransient(err error) bool { return platformerr.IsTransient(err) }

func IsPermission(err error) bool { return platformerr.IsPermission(err) }

func IsNotFound(err error) bool { return platformerr.IsNotFound(err) }

func ClassifyError(op string, err error) error { return platformerr.ClassifyError(op, err) }

func ClassifyStatus(op string, status int) error { return platformerr.ClassifyStatus(op, status) }
