package app

// Level of a user-visible notification.
type Level string

const (
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a transient message for the user (a toast).
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier is the side channel recoverable failures are reported on.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type discardNotifier struct{}

func (discardNotifier) Notify(Notification) {}
