package generator

// ProgressCallback is called during generation to report progress
type ProgressCallback func(event ProgressEvent)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Type    ProgressEventType
	Well    string
	Message string
	Index   int
	Total   int
	Records int
	Error   error
}

// ProgressEventType identifies the type of progress event
type ProgressEventType int

const (
	EventWellStart ProgressEventType = iota
	EventWellComplete
	EventNoiseComplete
	EventError
)

func (t ProgressEventType) String() string {
	switch t {
	case EventWellStart:
		return "well-start"
	case EventWellComplete:
		return "well-complete"
	case EventNoiseComplete:
		return "noise-complete"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}
