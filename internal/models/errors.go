package models

import (
	"errors"
	"fmt"
)

var (
	ErrDecode      = errors.New("decode error")
	ErrResize      = errors.New("resize error")
	ErrEncode      = errors.New("encode error")
	ErrUpload      = errors.New("upload error")
	ErrInvalidSlug = errors.New("invalid slug")
)

// StageError classifies a pipeline failure by the stage it happened in.
// errors.Is matches both the stage sentinel (ErrDecode, ErrEncode, ...) and
// the underlying cause.
type StageError struct {
	Stage     Stage
	SizeClass string
	Format    Format
	Err       error
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.SizeClass != "" && e.Format != "":
		return fmt.Sprintf("%s failed for %s/%s: %v", e.Stage, e.SizeClass, e.Format, e.Err)
	case e.SizeClass != "":
		return fmt.Sprintf("%s failed for %s: %v", e.Stage, e.SizeClass, e.Err)
	case e.Format != "":
		return fmt.Sprintf("%s failed for %s: %v", e.Stage, e.Format, e.Err)
	default:
		return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
	}
}

func (e *StageError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if sentinel := e.Stage.sentinel(); sentinel != nil {
		errs = append(errs, sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func NewDecodeError(err error) *StageError {
	return &StageError{Stage: StageDecode, Err: err}
}

func NewResizeError(sizeClass string, err error) *StageError {
	return &StageError{Stage: StageResize, SizeClass: sizeClass, Err: err}
}

func NewEncodeError(format Format, err error) *StageError {
	return &StageError{Stage: StageEncode, Format: format, Err: err}
}

func NewUploadError(sizeClass string, format Format, err error) *StageError {
	return &StageError{Stage: StageUpload, SizeClass: sizeClass, Format: format, Err: err}
}

// StageOf reports the stage of the first StageError in err's chain.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
