package utils

import (
	"strconv"
	"sync/atomic"
)

var idCounter atomic.Int64

// GenerateID returns a process-unique sequential id. Test fixtures use it in
// place of Mongo object ids.
func GenerateID() string {
	return strconv.FormatInt(idCounter.Add(1), 10)
}
