package handler

const (
	// RootPath is the root path of a route group.
	RootPath = "/"

	// ErrNilACDFatalLogMsg is used if an app, cfg or db pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg or db is nil"
)
