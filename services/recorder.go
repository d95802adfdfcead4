package services

import (
	"context"
	"log"
	"time"

	"github.com/profiteer-io/profiteer-api/models"
)

// RecordJob is one best-effort persistence request: the query that was
// analyzed plus every scrape result it produced.
type RecordJob struct {
	Query     string
	Condition string
	ImageURL  string
	Results   []*models.ScrapeResult
}

// Recorder persists analysis output off the request path. Jobs go through
// a buffered channel into a single worker goroutine; a full buffer drops
// the job rather than delaying a response. Losing an observation is
// acceptable, delaying the user-facing answer is not.
type Recorder struct {
	items  *ItemService
	prices *PriceTracker
	jobs   chan RecordJob
	done   chan struct{}
}

func NewRecorder(items *ItemService, prices *PriceTracker, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = 64
	}
	return &Recorder{
		items:  items,
		prices: prices,
		jobs:   make(chan RecordJob, buffer),
		done:   make(chan struct{}),
	}
}

// Start launches the worker goroutine.
func (r *Recorder) Start() {
	go func() {
		defer close(r.done)
		for job := range r.jobs {
			r.process(job)
		}
	}()
}

// Enqueue hands a job to the worker without blocking.
func (r *Recorder) Enqueue(job RecordJob) {
	select {
	case r.jobs <- job:
	default:
		log.Printf("[recorder] ⚠️  queue full, dropping observations for %q", job.Query)
	}
}

// Close stops accepting jobs and waits for the worker to drain.
func (r *Recorder) Close() {
	close(r.jobs)
	<-r.done
}

func (r *Recorder) process(job RecordJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	item, err := r.items.FindOrCreate(ctx, job.Query, job.ImageURL)
	if err != nil {
		log.Printf("[recorder] ⚠️  failed to resolve item %q: %v", job.Query, err)
		return
	}

	observations := buildObservations(job)
	if len(observations) == 0 {
		return
	}

	if err := r.prices.AppendObservations(ctx, item.ID, observations); err != nil {
		log.Printf("[recorder] ⚠️  failed to persist %d observations for item %s: %v",
			len(observations), item.ID, err)
		return
	}
	log.Printf("[recorder] ✅ Persisted %d observations for item id=%s name=%q",
		len(observations), item.ID, item.Name)
}

// buildObservations flattens contributing scrape results into price
// observations: one per sold listing, falling back to the aggregate
// average when a marketplace reported prices without individual sales.
func buildObservations(job RecordJob) []models.PriceObservation {
	var observations []models.PriceObservation

	for _, result := range job.Results {
		if result == nil || !result.Contributing() {
			continue
		}

		recorded := false
		for _, listing := range result.SoldListings {
			if !listing.Price.IsPositive() {
				continue
			}
			condition := listing.Condition
			if condition == "" {
				condition = job.Condition
			}
			observations = append(observations, models.PriceObservation{
				Marketplace: result.Marketplace,
				Price:       listing.Price,
				Condition:   condition,
				SoldDate:    listing.SoldDate,
			})
			recorded = true
		}

		if !recorded {
			if sale := result.SalePrice(); sale != nil {
				observations = append(observations, models.PriceObservation{
					Marketplace: result.Marketplace,
					Price:       *sale,
					Condition:   job.Condition,
				})
			}
		}
	}

	return observations
}
