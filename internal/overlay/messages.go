package overlay

// ExitReason explains why a session is ending.
type ExitReason string

const (
	// ReasonUserRequest is an exit the user asked for.
	ReasonUserRequest ExitReason = "user_request"
	// ReasonTimeout is an exit forced by the session deadline.
	ReasonTimeout ExitReason = "timeout"
	// ReasonOverlayFailure covers worker errors, panics and disconnects.
	ReasonOverlayFailure ExitReason = "overlay_failure"
	// ReasonStartFailure is a spawn that never produced a worker.
	ReasonStartFailure ExitReason = "start_failure"
)

func (r ExitReason) String() string { return string(r) }

// SaveResult reports what the worker did with the canvas on exit.
type SaveResult string

const (
	SaveSkipped SaveResult = "skipped"
	SaveSaved   SaveResult = "saved"
)

func (s SaveResult) String() string { return string(s) }

// CommandKind identifies a host-to-worker command.
type CommandKind string

const (
	CommandStart          CommandKind = "start"
	CommandRequestExit    CommandKind = "request_exit"
	CommandUpdateSettings CommandKind = "update_settings"
)

func (k CommandKind) String() string { return string(k) }

// Command is sent from the host to the worker.
// Reason is only meaningful for CommandRequestExit.
type Command struct {
	Kind   CommandKind
	Reason ExitReason
}

// StartCommand tells the worker it owns input.
func StartCommand() Command { return Command{Kind: CommandStart} }

// RequestExitCommand asks the worker to wind down.
func RequestExitCommand(reason ExitReason) Command {
	return Command{Kind: CommandRequestExit, Reason: reason}
}

// UpdateSettingsCommand tells the worker to re-read settings.
func UpdateSettingsCommand() Command { return Command{Kind: CommandUpdateSettings} }

// NotificationKind identifies a worker-to-host notification.
type NotificationKind string

const (
	NotifyExited       NotificationKind = "exited"
	NotifySaveProgress NotificationKind = "save_progress"
	NotifySaveError    NotificationKind = "save_error"
)

func (k NotificationKind) String() string { return string(k) }

// Snapshot summarizes canvas contents for progress reporting.
type Snapshot struct {
	Revision uint64
	Objects  int
}

// Notification is sent from the worker to the host.
type Notification struct {
	Kind NotificationKind

	// Exited
	Reason     ExitReason
	SaveResult SaveResult

	// SaveProgress
	Snapshot Snapshot

	// SaveError
	Message string
}

// Exited reports that the worker has stopped.
func Exited(reason ExitReason, result SaveResult) Notification {
	return Notification{Kind: NotifyExited, Reason: reason, SaveResult: result}
}

// SaveProgress reports a canvas change.
func SaveProgress(snapshot Snapshot) Notification {
	return Notification{Kind: NotifySaveProgress, Snapshot: snapshot}
}

// SaveError reports a failed save or export.
func SaveError(message string) Notification {
	return Notification{Kind: NotifySaveError, Message: message}
}
