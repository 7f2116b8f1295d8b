package cpu

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// LoadImage parses a .ls8 image.
//
// Each line holds a binary literal of up to eight digits, optionally
// followed by a '#' comment. Blank and comment-only lines are skipped.
// Every literal becomes one byte, at increasing addresses from 0.
func LoadImage(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var text string
	var lineno int

	defer func() {
		if err != nil {
			err = ErrSyntax{LineNo: lineno, Line: text, Err: err}
		}
	}()

	prog = &Program{}

	var ip int
	for scanner.Scan() {
		text = scanner.Text()
		lineno += 1

		token, _, _ := strings.Cut(text, "#")
		token = strings.TrimSpace(token)
		if len(token) == 0 {
			continue
		}

		var value byte
		value, err = parseBinary(token)
		if err != nil {
			return
		}

		if ip >= RAM_SIZE {
			err = ErrProgramTooLarge
			return
		}

		prog.Lines = append(prog.Lines, Line{
			LineNo: lineno,
			Ip:     ip,
			Words:  []string{token},
			Bytes:  []byte{value},
		})
		ip++
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	return
}

// parseBinary parses an eight bit binary literal, with an optional 0b prefix.
func parseBinary(token string) (value byte, err error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(token, "0b"), "0B")
	if len(digits) == 0 || len(digits) > 8 {
		err = ErrParseNumber(token)
		return
	}

	v64, err := strconv.ParseUint(digits, 2, 8)
	if err != nil {
		err = ErrParseNumber(token)
		return
	}

	value = byte(v64)
	return
}
