package notify

import "log/slog"

// Level classifies a notice the way the UI colors it.
type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Warning Level = "warning"
	Danger  Level = "danger"
)

// Notice is one transient, dismissible message for the user. Nothing that
// flows through here is fatal; notices accompany a degraded-but-consistent
// local view.
type Notice struct {
	Level   Level
	Message string
}

// Notifier receives transient notices.
type Notifier interface {
	Notify(level Level, message string)
}

// Func adapts a function to Notifier.
type Func func(level Level, message string)

func (f Func) Notify(level Level, message string) { f(level, message) }

// LogNotifier writes notices to the structured log. Used headless (CLI
// commands) and as the fallback when no UI is attached.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(level Level, message string) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	switch level {
	case Danger:
		logger.Error(message)
	case Warning:
		logger.Warn(message)
	default:
		logger.Info(message)
	}
}

// Fanout forwards each notice to every target.
type Fanout []Notifier

func (f Fanout) Notify(level Level, message string) {
	for _, n := range f {
		n.Notify(level, message)
	}
}
