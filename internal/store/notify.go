package store

import "github.com/sirupsen/logrus"

// Notifier receives user-visible outcome messages. The presentation
// layer supplies the real implementation (toasts); the store only
// decides what to say.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// NopNotifier discards all messages.
type NopNotifier struct{}

func (NopNotifier) Success(string) {}
func (NopNotifier) Error(string)   {}

// LogNotifier writes messages to the log. Used when no presentation
// layer is attached.
type LogNotifier struct {
	Log *logrus.Entry
}

func (n LogNotifier) Success(message string) {
	n.Log.Info(message)
}

func (n LogNotifier) Error(message string) {
	n.Log.Error(message)
}
