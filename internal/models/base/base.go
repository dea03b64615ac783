package base

import (
	"sort"
	"time"
)

//ResultIDRef stores the DB ID and the external reference of an imported row
type ResultIDRef struct {
	ID        int64
	SourceRef string
}

// Base definition
type Base struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

//SourceRefExists check if a reference defined in srcRef exists in an array of sorted
//references. This allows us to figure out the deletes after an import
func SourceRefExists(srcRef string, sortedRefs []string, length int) bool {
	i := sort.SearchStrings(sortedRefs, srcRef)
	if i >= length || sortedRefs[i] != srcRef {
		return false
	}
	return true
}
