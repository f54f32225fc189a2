package utils

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// runSeq disambiguates fallback run IDs minted within the same second.
var runSeq atomic.Uint64

// GenerateSessionID returns a random UUID for a dashboard session.
func GenerateSessionID() string {
	return uuid.NewString()
}

// GenerateRunID returns a run ID that sorts by creation time.
func GenerateRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf("run-%d-%d", time.Now().Unix(), runSeq.Add(1))
	}
	return "run-" + id.String()
}
