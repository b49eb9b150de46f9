// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"errors"
	"fmt"
)

// IOError reports a filesystem failure on a chat file.
type IOError struct {
	Op   string // create, append, delete, list
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("transcript %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsIOError reports whether err is, or wraps, an *IOError.
func IsIOError(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr)
}

// ErrInvalidID is returned for ids that would escape the chats directory.
var ErrInvalidID = errors.New("invalid chat id")
