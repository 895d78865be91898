// Package analysis classifies an uploaded file and computes its summary
// statistics.
//
// Analyze is a pure function of (fileId, name, content type, bytes): it never
// touches storage and never returns an error, so the same input always yields
// the same ResultRecord. That is what makes redelivered store events harmless.
package analysis
