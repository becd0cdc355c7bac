package utils

import (
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

// StackTraceFromPanic recovers from a panic and logs the stack trace
func StackTraceFromPanic(logger *log.Entry) {
	if r := recover(); r != nil {
		logger.Errorf("panic: %v\n%s", r, string(debug.Stack()))
		panic(fmt.Sprintf("%v", r))
	}
}
