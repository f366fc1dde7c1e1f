// Package alerts turns merge outcomes into short status notifications for
// the terminal.
package alerts

import (
	"fmt"
	"time"
)

// Alert is one notification about a merge: a dropped report, a suite that
// needs attention, or the overall verdict.
type Alert struct {
	Level     Level
	Message   string
	Details   []string
	Timestamp time.Time
	Err       error
}

// New stamps an alert with the current time.
func New(level Level, message string) *Alert {
	return &Alert{Level: level, Message: message, Timestamp: time.Now()}
}

// Errorf builds an error alert from a format string.
func Errorf(format string, args ...any) *Alert {
	return New(LevelError, fmt.Sprintf(format, args...))
}

// Warnf builds a warning alert.
func Warnf(format string, args ...any) *Alert {
	return New(LevelWarning, fmt.Sprintf(format, args...))
}

// Infof builds an informational alert.
func Infof(format string, args ...any) *Alert {
	return New(LevelInfo, fmt.Sprintf(format, args...))
}

// Successf builds a success alert.
func Successf(format string, args ...any) *Alert {
	return New(LevelSuccess, fmt.Sprintf(format, args...))
}

// WithError attaches the cause. A nil err leaves the alert unchanged.
func (a *Alert) WithError(err error) *Alert {
	if err != nil {
		a.Err = err
	}
	return a
}

// WithDetails appends indented context lines.
func (a *Alert) WithDetails(details ...string) *Alert {
	a.Details = append(a.Details, details...)
	return a
}

// String renders the icon, the message and the cause on one line.
func (a *Alert) String() string {
	if a.Err == nil {
		return a.Level.Icon() + " " + a.Message
	}
	return fmt.Sprintf("%s %s: %v", a.Level.Icon(), a.Message, a.Err)
}

// Writer emits alerts.
type Writer interface {
	WriteAlert(alert *Alert) error
}

// WriteAll writes alerts in order, stopping at the first failure.
func WriteAll(w Writer, alerts []*Alert) error {
	for _, a := range alerts {
		if err := w.WriteAlert(a); err != nil {
			return err
		}
	}
	return nil
}
