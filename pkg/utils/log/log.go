// Copyright 2016 CodisLabs. All Rights Reserved.
// Licensed under the MIT (MIT-LICENSE.txt) license.

package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
)

type LogLevel int64

const (
	LevelNone LogLevel = iota << 1
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
)

func (l *LogLevel) Get() LogLevel {
	return LogLevel(atomic.LoadInt64((*int64)(l)))
}

func (l *LogLevel) Set(v LogLevel) {
	atomic.StoreInt64((*int64)(l), int64(v))
}

func (l LogLevel) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "NONE"
	}
}

type Logger struct {
	out   *log.Logger
	level LogLevel
}

var StdLog = New(os.Stderr)

func New(w io.Writer) *Logger {
	l := &Logger{out: log.New(w, "", log.LstdFlags)}
	l.level.Set(LevelInfo)
	return l
}

func SetLevel(v LogLevel) {
	StdLog.level.Set(v)
}

func (l *Logger) isDisabled(v LogLevel) bool {
	return v > l.level.Get()
}

func (l *Logger) output(v LogLevel, err error, s string) {
	if l.isDisabled(v) {
		return
	}
	if err != nil {
		l.out.Printf("[%s] %s - %s", v, s, err)
	} else {
		l.out.Printf("[%s] %s", v, s)
	}
}

func Println(args ...interface{}) {
	StdLog.output(LevelInfo, nil, fmt.Sprintln(args...))
}

func Printf(format string, args ...interface{}) {
	StdLog.output(LevelInfo, nil, fmt.Sprintf(format, args...))
}

func Debugf(format string, args ...interface{}) {
	StdLog.output(LevelDebug, nil, fmt.Sprintf(format, args...))
}

func Infof(format string, args ...interface{}) {
	StdLog.output(LevelInfo, nil, fmt.Sprintf(format, args...))
}

func Warnf(format string, args ...interface{}) {
	StdLog.output(LevelWarn, nil, fmt.Sprintf(format, args...))
}

func Errorf(format string, args ...interface{}) {
	StdLog.output(LevelError, nil, fmt.Sprintf(format, args...))
}

func InfoErrorf(err error, format string, args ...interface{}) {
	StdLog.output(LevelInfo, err, fmt.Sprintf(format, args...))
}

func WarnErrorf(err error, format string, args ...interface{}) {
	StdLog.output(LevelWarn, err, fmt.Sprintf(format, args...))
}

func ErrorErrorf(err error, format string, args ...interface{}) {
	StdLog.output(LevelError, err, fmt.Sprintf(format, args...))
}

func Panicf(format string, args ...interface{}) {
	s := fmt.Sprintf(format, args...)
	StdLog.output(LevelError, nil, s)
	panic(s)
}

func PanicErrorf(err error, format string, args ...interface{}) {
	s := fmt.Sprintf(format, args...)
	StdLog.output(LevelError, err, s)
	panic(s)
}
