package ui

import "time"

const (
	// chromeHeight is the number of rows used by the header, input, status
	// and footer lines around the result list.
	chromeHeight = 6

	// compactWidth is the width below which the year and type columns are
	// dropped from the result list.
	compactWidth = 60

	// logTailLines is how many log lines the log view reads.
	logTailLines = 400

	// logRefreshInterval is how often the open log view re-reads the file.
	logRefreshInterval = 2 * time.Second
)
