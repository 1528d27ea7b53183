package log

import (
	"fmt"

	"github.com/fatih/color"
	"golang.org/x/exp/slog"
)

var (
	statusTag  = color.New(color.FgBlue, color.Bold).Sprint("[*]")
	successTag = color.New(color.FgGreen, color.Bold).Sprint("[+]")
)

// Statusf prints an operator-facing progress line.
func Statusf(format string, args ...any) {
	fmt.Printf("%s %s\n", statusTag, fmt.Sprintf(format, args...))
}

func Successf(format string, args ...any) {
	fmt.Printf("%s %s\n", successTag, fmt.Sprintf(format, args...))
}

func Errorf(format string, args ...any) {
	slog.Default().Error(fmt.Sprintf(format, args...))
}

func Warnf(format string, args ...any) {
	slog.Default().Warn(fmt.Sprintf(format, args...))
}

func Debugf(format string, args ...any) {
	slog.Default().Debug(fmt.Sprintf(format, args...))
}
