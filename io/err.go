package io

import (
	"errors"

	"github.com/elysiagabe/ls8/translate"
)

var f = translate.From

var (
	// Device errors
	ErrOutputMissing = errors.New(f("output missing"))
)
