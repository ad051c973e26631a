package models

// RosterRecord is one entry of the authoritative alumni roster.
// Read-only to this service; the roster is imported by the admin tooling.
type RosterRecord struct {
	RollNo string `json:"rollNo"`
	Name   string `json:"name"`
	Batch  string `json:"batch"`
	Branch string `json:"branch"`
}
