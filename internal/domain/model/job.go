package model

import "time"

// ClipJob is one cut handed to the extraction workers. Record is what the
// index receives when the cut succeeds.
type ClipJob struct {
	Seq    int // manifest row number, for logs
	Src    string
	Dst    string
	Start  float64
	Dur    float64
	Record ClipRecord
}

// ClipResult reports how a ClipJob ended.
type ClipResult struct {
	Job     ClipJob
	Err     error
	Elapsed time.Duration
}
