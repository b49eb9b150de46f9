// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"errors"
	"fmt"
)

// LoadError reports that the model in Dir could not be opened on Device.
type LoadError struct {
	Dir    string
	Device string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load model %s on %s: %v", e.Dir, e.Device, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// GenerationError reports a failure while the model was producing text.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return "generation failed: " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Load error causes.
var (
	ErrModelDirMissing = errors.New("model directory does not exist")
	ErrManifestMissing = errors.New("model.toml not found")
	ErrManifestNoModel = errors.New("model.toml does not name a model")
	ErrUnknownBackend  = errors.New("unknown backend")
	ErrUnknownDevice   = errors.New("unsupported device")
	ErrEngineClosed    = errors.New("engine closed")
)

// IsLoadError reports whether err is, or wraps, a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// IsGenerationError reports whether err is, or wraps, a *GenerationError.
func IsGenerationError(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}

// Message returns the text shown to the user for an engine failure. A
// generation error shows only its cause; anything else shows in full.
func Message(err error) string {
	var ge *GenerationError
	if errors.As(err, &ge) && ge.Err != nil {
		return ge.Err.Error()
	}
	return err.Error()
}
