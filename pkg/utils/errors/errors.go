// Copyright 2016 CodisLabs. All Rights Reserved.
// Licensed under the MIT (MIT-LICENSE.txt) license.

package errors

import (
	"errors"
	"fmt"
	"runtime"
)

var TraceEnabled = true

type TracedError struct {
	Stack Stack
	Cause error
}

func (e *TracedError) Error() string {
	return e.Cause.Error()
}

type Stack []uintptr

func (s Stack) StringWithIndent(indent int) string {
	var b []byte
	frames := runtime.CallersFrames(s)
	for {
		f, more := frames.Next()
		for i := 0; i < indent; i++ {
			b = append(b, ' ')
		}
		b = append(b, fmt.Sprintf("%s:%d\n", f.File, f.Line)...)
		if !more {
			break
		}
	}
	return string(b)
}

func traceStack(skip int) Stack {
	if !TraceEnabled {
		return nil
	}
	pc := make([]uintptr, 32)
	n := runtime.Callers(skip+2, pc)
	return Stack(pc[:n])
}

func New(s string) error {
	return errors.New(s)
}

func Errorf(format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	if !TraceEnabled {
		return err
	}
	return &TracedError{
		Stack: traceStack(1),
		Cause: err,
	}
}

func Trace(err error) error {
	if err == nil || !TraceEnabled {
		return err
	}
	if _, ok := err.(*TracedError); ok {
		return err
	}
	return &TracedError{
		Stack: traceStack(1),
		Cause: err,
	}
}

func Cause(err error) error {
	for err != nil {
		if e, ok := err.(*TracedError); ok {
			err = e.Cause
		} else {
			return err
		}
	}
	return nil
}

func Equal(err1, err2 error) bool {
	e1, e2 := Cause(err1), Cause(err2)
	if e1 == e2 {
		return true
	}
	if e1 == nil || e2 == nil {
		return false
	}
	return e1.Error() == e2.Error()
}
