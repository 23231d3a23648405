package runner

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/banshee-data/tracklet.hierarchy/internal/db"
)

// Summary tallies the outcomes of a batch.
type Summary struct {
	Clustered int
	FellBack  int
	Skipped   int
	Missing   int
	Failed    int

	// Errors maps each failed video to its error.
	Errors map[string]error
}

func newSummary() *Summary {
	return &Summary{Errors: make(map[string]error)}
}

// Add counts one video result.
func (s *Summary) Add(res VideoResult) {
	switch res.Outcome {
	case OutcomeClustered:
		s.Clustered++
	case OutcomeFellBack:
		s.FellBack++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeMissingInput:
		s.Missing++
	default:
		s.Failed++
		s.Errors[res.Video] = res.Err
	}
}

// Total returns the number of videos counted.
func (s *Summary) Total() int {
	return s.Clustered + s.FellBack + s.Skipped + s.Missing + s.Failed
}

// Counts converts the summary for the run registry.
func (s *Summary) Counts() db.RunCounts {
	return db.RunCounts{
		Total:     s.Total(),
		Clustered: s.Clustered,
		FellBack:  s.FellBack,
		Skipped:   s.Skipped,
		Missing:   s.Missing,
		Failed:    s.Failed,
	}
}

// FailedVideos returns the names of failed videos in sorted order.
func (s *Summary) FailedVideos() []string {
	out := make([]string, 0, len(s.Errors))
	for v := range s.Errors {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (s *Summary) String() string {
	return fmt.Sprintf("%d videos: %d clustered, %d fallback, %d skipped, %d missing, %d failed",
		s.Total(), s.Clustered, s.FellBack, s.Skipped, s.Missing, s.Failed)
}

// Slice returns videos[start:start+count], clamped to the list. A count of
// zero or less runs to the end.
func Slice(videos []string, start, count int) ([]string, error) {
	if start < 0 || start > len(videos) {
		return nil, fmt.Errorf("start %d out of range [0, %d]", start, len(videos))
	}
	end := len(videos)
	if count > 0 && start+count < end {
		end = start + count
	}
	return videos[start:end], nil
}

// RunRange processes a contiguous slice of videos sequentially. Several
// processes given disjoint slices share the output directory safely since
// every video writes its own file. A cancelled context stops the batch
// between videos.
func (r *Runner) RunRange(ctx context.Context, videos []string, start, count int) (*Summary, error) {
	batch, err := Slice(videos, start, count)
	if err != nil {
		return nil, err
	}
	logf("processing %d videos from index %d", len(batch), start)

	sum := newSummary()
	for _, v := range batch {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Add(r.process(ctx, v))
	}
	return sum, nil
}

// RunPool processes videos with a pool of workers pulling from a randomly
// permuted queue, one video at a time. Per-video failures are collected in
// the summary and never stop other videos.
func (r *Runner) RunPool(ctx context.Context, videos []string, workers int) (*Summary, error) {
	if workers < 1 {
		workers = 1
	}
	rng := rand.New(rand.NewSource(r.baseSeed))
	order := rng.Perm(len(videos))
	logf("processing %d videos with %d workers", len(videos), workers)

	jobs := make(chan string)
	results := make(chan VideoResult)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for v := range jobs {
				results <- r.process(ctx, v)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, i := range order {
			select {
			case jobs <- videos[i]:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	sum := newSummary()
	for res := range results {
		sum.Add(res)
	}
	return sum, ctx.Err()
}
