package service

import (
	"context"
	"strconv"
	"sync"

	"github.com/okian/windward/internal/config"
	"github.com/okian/windward/pkg/logger"
)

// raceJob is one race pipeline dispatched to the pool, carrying the slot
// its result lands in so output order matches config order.
type raceJob struct {
	index int
	race  config.Race
}

// pool runs race pipelines on a fixed set of workers. Races never share
// pipeline state, so workers need no coordination beyond the job channel.
type pool struct {
	size    int
	process func(ctx context.Context, race config.Race) RaceResult
	log     logger.Logger
}

func newPool(size int, process func(ctx context.Context, race config.Race) RaceResult, log logger.Logger) *pool {
	if size < 1 {
		size = 1
	}
	return &pool{size: size, process: process, log: log}
}

// run dispatches every race and blocks until all workers drain the queue.
// Results are indexed by the job's slot. A canceled context stops workers
// between races; the in-flight race still completes.
func (p *pool) run(ctx context.Context, races []config.Race) []RaceResult {
	results := make([]RaceResult, len(races))
	jobs := make(chan raceJob)

	var wg sync.WaitGroup
	for i := 0; i < p.size; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			log := p.log.Named("worker-" + strconv.Itoa(id))
			for job := range jobs {
				select {
				case <-ctx.Done():
					results[job.index] = RaceResult{Race: job.race.Name, Err: ctx.Err()}
					continue
				default:
				}
				log.Debug(ctx, "race dispatched", logger.String("race", job.race.Name))
				results[job.index] = p.process(ctx, job.race)
			}
		}(i)
	}

	for i, race := range races {
		jobs <- raceJob{index: i, race: race}
	}
	close(jobs)
	wg.Wait()
	return results
}
