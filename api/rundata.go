package api

// RunData contains execution information for a single process run
type RunData struct {
	Stdin    string `json:"in"`
	Stdout   string `json:"out"`
	Stderr   string `json:"err"`
	ExitCode int64  `json:"exit"`

	WallMillis int64 `json:"wall_ms"`
	TimedOut   bool  `json:"timed_out"`

	// Fault holds the error trace when the run did not complete successfully
	Fault *string `json:"fault"`
}
