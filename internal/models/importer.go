package models

// Message is one warning or error line reported by the importer.
type Message struct {
	Message string `json:"message"`
}

// ImportTask is the unit of work the importer is currently processing.
type ImportTask struct {
	ID      int64     `json:"id,omitempty"`
	URI     string    `json:"uri"`
	Created Timestamp `json:"created,omitempty"`
	Started Timestamp `json:"started,omitempty"`
}

// ImportStatus is a snapshot of GET /api/importer.
//
// Warnings and Errors describe this snapshot only; a newer snapshot replaces them.
type ImportStatus struct {
	CurrentTask      *ImportTask `json:"current_task"`
	OutstandingTasks int         `json:"outstanding_tasks"`
	Warnings         []Message   `json:"warnings"`
	Errors           []Message   `json:"errors"`
}

// Idle reports whether the snapshot shows no outstanding work.
func (s ImportStatus) Idle() bool {
	return s.OutstandingTasks == 0
}

// ImportRequest is the body of POST /api/importer.
type ImportRequest struct {
	Path string `json:"path"`
}
