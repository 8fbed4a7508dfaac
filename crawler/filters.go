package crawler

import (
	"venue-crawler/models"
	"venue-crawler/utils"
)

// IsDuplicate reports whether name was already accepted in this run.
func IsDuplicate(name string, seen *utils.NameSet) bool {
	return seen.Contains(name)
}

// IsComplete reports whether every required key is present in c. Only
// presence counts: zero, false, empty and null values all satisfy it.
func IsComplete(c models.Candidate, requiredKeys []string) bool {
	for _, key := range requiredKeys {
		if _, ok := c[key]; !ok {
			return false
		}
	}
	return true
}
