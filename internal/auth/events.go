package auth

// Routes the view layer navigates between.
const (
	RouteEntry  = "/"
	RouteChat   = "/chat"
	RouteResult = "/result"
)

// EventKind classifies an [Event].
type EventKind int

const (
	// EventNavigate asks the view layer to show Route.
	EventNavigate EventKind = iota
	// EventNotify carries a user-facing notification.
	EventNotify
	// EventIdentity reports that the authenticated identity changed.
	EventIdentity
)

// Level of an [EventNotify] notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Event is emitted by the [Coordinator] to its subscribers.
type Event struct {
	Kind EventKind

	Route string // EventNavigate

	Level   Level  // EventNotify
	Err     error  // EventNotify, nil for informational notices
	Message string // EventNotify

	UserID        string // EventIdentity, empty after logout
	Authenticated bool   // EventIdentity
}

func navigate(route string) Event { return Event{Kind: EventNavigate, Route: route} }

func notifyErr(err error) Event {
	return Event{Kind: EventNotify, Level: LevelError, Err: err, Message: err.Error()}
}

func notifyInfo(msg string) Event { return Event{Kind: EventNotify, Level: LevelInfo, Message: msg} }

func identity(userID string, authenticated bool) Event {
	return Event{Kind: EventIdentity, UserID: userID, Authenticated: authenticated}
}
