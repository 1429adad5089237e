package testexport

import "time"

// Config holds configuration for a synthetic export run.
type Config struct {
	Dir            string // Directory receiving the export, manifest and videos
	Events         int    // Distinct events to generate
	Videos         int    // Source videos the events are spread over
	DuplicateEvery int    // Every Nth event is tagged twice (0 disables)
	BadTimeEvery   int    // Every Nth event gets an extra row with a broken time (0 disables)
	MissingVideos  int    // Videos left without a placeholder file
	Seed           int64  // Seed for labels and outcomes
	BOM            bool   // Prefix the export with a UTF-8 byte order mark
}

// Expected is what normalizing the generated export must produce.
type Expected struct {
	Rows       int            // data rows in the export
	Distinct   int            // manifest rows
	Duplicates int            // rows dropped as duplicates
	BadTimes   int            // rows dropped for an unparsable time
	Defaulted  int            // outcomes written as failure without a known token
	Actions    map[string]int // canonical action counts in the manifest
	Videos     []string       // canonical video filenames
}

// Stats holds run statistics.
type Stats struct {
	RowsGenerated int
	RowsWritten   int
	RowsSkipped   int
	Mismatches    int
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}
