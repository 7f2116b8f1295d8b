package emulator

import (
	"errors"
	"fmt"

	"github.com/elysiagabe/ls8/translate"
)

var f = translate.From

var (
	ErrTickLimit = errors.New(f("tick limit reached"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	LineNo int
	Pc     int
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("line %v (pc %v) %v", fmt.Sprint(err.LineNo), fmt.Sprintf("%02X", err.Pc), err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
