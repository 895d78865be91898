package model

import "time"

// Domain constants shared across handler, analysis, and storage packages.
const (
	MaxFileSizeBytes       = int64(10_485_760) // 10 MB
	PresignedURLTTLSeconds = 300               // 5 minutes
	PollIntervalSeconds    = 5

	// UploadsPrefix holds raw client uploads; bucket notifications are filtered on it.
	UploadsPrefix = "uploads/"
	// ResultsPrefix holds one JSON result record per submission.
	ResultsPrefix = "results/"
	// CSVDelimiter is the only field separator the analyzer understands.
	CSVDelimiter = ","
)

// PresignedURLTTL is PresignedURLTTLSeconds as a duration.
const PresignedURLTTL = PresignedURLTTLSeconds * time.Second

// MaxPresignedURLTTL bounds a configured upload window. Capabilities live for
// minutes, not hours.
const MaxPresignedURLTTL = time.Hour
