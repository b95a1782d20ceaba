package utils

import "log"

// GoSafe runs fn on a new goroutine and recovers panics so a background
// task can never take the serving process down.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("recovered from panic in background task: %v", r)
			}
		}()
		fn()
	}()
}
