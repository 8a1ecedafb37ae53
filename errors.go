package prince

import (
	"errors"

	"github.com/alnah/go-prince/internal/chunk"
	"github.com/alnah/go-prince/internal/lifecycle"
)

// Runtime errors surfaced by conversions. None of them are retried.
var (
	// ErrProtocol reports malformed chunk framing or an unexpected handshake.
	// It shares identity with the framing error of internal/chunk.
	ErrProtocol = chunk.ErrProtocol

	// ErrStartup reports an engine that could not be spawned or refused to
	// start. The session is unusable afterwards.
	ErrStartup = errors.New("engine startup failed")

	// ErrConversion reports an err chunk for one job. The session stays usable.
	ErrConversion = errors.New("conversion failed")

	// ErrIO reports a pipe that closed or failed during a conversion.
	ErrIO = errors.New("engine I/O failed")

	// Spawn diagnoses, joined with ErrStartup.
	ErrEngineNotFound     = errors.New("engine executable not found")
	ErrEnginePathNotFound = errors.New("engine path not found")
	ErrEnginePermission   = errors.New("permission denied running engine")
)

// Precondition errors: the caller has to fix the code or the options.
var (
	// ErrLifecycle reports a call made in the wrong session state.
	ErrLifecycle = lifecycle.ErrWrongState

	ErrNilJob               = errors.New("job cannot be nil")
	ErrInputTypeRequired    = errors.New("input type must be html or xml for in-memory input")
	ErrInvalidOption        = errors.New("invalid option")
	ErrRasterPageRequired   = errors.New("raster page must be greater than 0")
	ErrRasterFormatRequired = errors.New("raster format must be png or jpeg")
	ErrNoInput              = errors.New("job has no input")
	ErrPoolClosed           = errors.New("control pool is closed")
)
