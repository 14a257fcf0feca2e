package constants

// RunStatus is the canonical status for rows in extraction_runs.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusQueued   RunStatus = "QUEUED"    // queued for processing
	RunStatusRunning  RunStatus = "RUNNING"   // in progress
	RunStatusTextOK   RunStatus = "TEXT_OK"   // stage 1 completed (text extracted)
	RunStatusParsedOK RunStatus = "PARSED_OK" // stage 2 completed (contacts collected)
	RunStatusFailed   RunStatus = "FAILED"    // terminal failure
)
