package sync

// Stages of a sync run, reported on Error
const (
	StageLock  = "lock"
	StageAuth  = "auth"
	StageList  = "list"
	StageBuild = "build"
	StageWrite = "write"
)

// Error is a failed sync run together with the stage that failed
type Error struct {
	Err     error
	Message string
	Stage   string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(stage, message string, err error) *Error {
	return &Error{
		Err:     err,
		Message: message + ": " + err.Error(),
		Stage:   stage,
	}
}
