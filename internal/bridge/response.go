package bridge

// Response is a reply to the extension.  Every Response marshals to a JSON
// object with a "success" field.
type Response interface {
	Succeeded() bool
}

// Failure reports that a request could not be carried out.
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NotFound reports that no Everything executable could be resolved.
type NotFound struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	// AvailablePaths lists candidates that exist but were not usable.
	AvailablePaths []string `json:"available_paths"`
}

// SearchStarted reports that Everything was launched.
type SearchStarted struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	EverythingPath string `json:"everything_path"`
}

// Status describes where Everything was found, if anywhere.
type Status struct {
	Success         bool     `json:"success"`
	EverythingFound bool     `json:"everything_found"`
	EverythingPath  *string  `json:"everything_path"`
	AvailablePaths  []string `json:"available_paths"`
}

// PathSaved reports that an override was persisted.
type PathSaved struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	EverythingPath string `json:"everything_path"`
}

// PathValidity answers a validate_path request.
type PathValidity struct {
	Success bool   `json:"success"`
	Valid   bool   `json:"valid"`
	Path    string `json:"path"`
}

func (r Failure) Succeeded() bool       { return r.Success }
func (r NotFound) Succeeded() bool      { return r.Success }
func (r SearchStarted) Succeeded() bool { return r.Success }
func (r Status) Succeeded() bool        { return r.Success }
func (r PathSaved) Succeeded() bool     { return r.Success }
func (r PathValidity) Succeeded() bool  { return r.Success }

func failure(msg string) Failure {
	return Failure{Success: false, Error: msg}
}
