// Package workers implements the asynchronous click-recording pool.
package workers

import (
	"log"

	"github.com/axellelanca/shortly/internal/models"
	"github.com/axellelanca/shortly/internal/repository"
)

// StartClickWorkers launches a pool of worker goroutines to persist click
// events off the redirect path. Workers exit when the channel is closed.
func StartClickWorkers(workerCount int, clickEvents <-chan models.ClickEvent, clickRepo repository.ClickRepository) {
	log.Printf("Starting %d click worker(s)...", workerCount)
	for i := 0; i < workerCount; i++ {
		go clickWorker(clickEvents, clickRepo)
	}
}

func clickWorker(clickEvents <-chan models.ClickEvent, clickRepo repository.ClickRepository) {
	for event := range clickEvents {
		click := &models.Click{
			LinkID:    event.LinkID,
			Timestamp: event.Timestamp,
			UserAgent: event.UserAgent,
			IPAddress: event.IPAddress,
		}
		if err := clickRepo.CreateClick(click); err != nil {
			// Log and keep going; one failed click must not stall the pool.
			log.Printf("ERROR: Failed to save click for LinkID %d: %v", event.LinkID, err)
		}
	}
}
