package config

import (
	"fmt"
)

type StoreKeyStruct struct{}

func NewStoreKeyStruct() *StoreKeyStruct {
	return &StoreKeyStruct{}
}

// SessionIndexKey returns the sorted-set key indexing sessions by creation time
func (r *StoreKeyStruct) SessionIndexKey() string {
	return "grade:sessions"
}

// SessionCreatedKey returns the write-once marker key for a grading session
func (r *StoreKeyStruct) SessionCreatedKey(sessionID string) string {
	return fmt.Sprintf("grade:session:%s:created", sessionID)
}

// SessionPreviewKey returns the key holding a session's per-student preview
func (r *StoreKeyStruct) SessionPreviewKey(sessionID string) string {
	return fmt.Sprintf("grade:session:%s:preview", sessionID)
}

// SessionMetricsKey returns the key holding a session's metrics report
func (r *StoreKeyStruct) SessionMetricsKey(sessionID string) string {
	return fmt.Sprintf("grade:session:%s:metrics", sessionID)
}

// SessionWorkbookKey returns the key holding a session's graded workbook bytes
func (r *StoreKeyStruct) SessionWorkbookKey(sessionID string) string {
	return fmt.Sprintf("grade:session:%s:workbook", sessionID)
}

// SessionKeys returns every key owned by a session
func (r *StoreKeyStruct) SessionKeys(sessionID string) []string {
	return []string{
		r.SessionCreatedKey(sessionID),
		r.SessionPreviewKey(sessionID),
		r.SessionMetricsKey(sessionID),
		r.SessionWorkbookKey(sessionID),
	}
}

var StoreKey = NewStoreKeyStruct()
