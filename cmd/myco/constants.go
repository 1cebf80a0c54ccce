package main

// Default limits for CLI commands.
const (
	DefaultSearchLimit  = 10
	DefaultHistoryLimit = 20
	// maxListedProblems caps the per-item lines printed after a run.
	maxListedProblems = 20
)
