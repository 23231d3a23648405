// Package runner drives the clustering engine over many videos. Every video
// is processed independently: skip when its artifact exists, otherwise load,
// cluster and write the artifact atomically.
package runner

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"math/rand"
	"time"

	"github.com/banshee-data/tracklet.hierarchy/internal/artifact"
	"github.com/banshee-data/tracklet.hierarchy/internal/cluster"
	"github.com/banshee-data/tracklet.hierarchy/internal/config"
	"github.com/banshee-data/tracklet.hierarchy/internal/db"
	"github.com/banshee-data/tracklet.hierarchy/internal/fsutil"
	"github.com/banshee-data/tracklet.hierarchy/internal/monitoring"
	"github.com/banshee-data/tracklet.hierarchy/internal/security"
	"github.com/banshee-data/tracklet.hierarchy/internal/timeutil"
	"github.com/banshee-data/tracklet.hierarchy/internal/tracklet"
	"github.com/banshee-data/tracklet.hierarchy/internal/version"
)

var logf = monitoring.Component("Runner")

// Outcome is what happened to one video.
type Outcome string

const (
	OutcomeSkipped      Outcome = "skipped"
	OutcomeClustered    Outcome = "clustered"
	OutcomeFellBack     Outcome = "fallback"
	OutcomeMissingInput Outcome = "missing_input"
	OutcomeFailed       Outcome = "failed"
)

// Recorder receives one record per processed video. *db.RunStore
// implements it.
type Recorder interface {
	RecordVideo(rec *db.VideoRecord) error
}

// Runner processes videos with a shared engine. The zero value is not
// usable; construct with New.
type Runner struct {
	FS           fsutil.FileSystem
	Config       *config.ClusteringConfig
	Engine       *cluster.Engine
	Clock        timeutil.Clock
	TrackletsDir string
	ClustersDir  string

	// Recorder and RunID are optional. When set every outcome is recorded.
	Recorder Recorder
	RunID    string

	// Verbose logs one status line per video.
	Verbose bool

	baseSeed int64
}

// New returns a runner reading tracklets from trackletsDir and writing
// artifacts to clustersDir. The seed comes from cfg; without one it is
// derived from the clock.
func New(fsys fsutil.FileSystem, cfg *config.ClusteringConfig, trackletsDir, clustersDir string) *Runner {
	if cfg == nil {
		cfg = config.DefaultClusteringConfig()
	}
	r := &Runner{
		FS:           fsys,
		Config:       cfg,
		Engine:       cluster.NewEngine(cfg),
		Clock:        timeutil.RealClock{},
		TrackletsDir: trackletsDir,
		ClustersDir:  clustersDir,
	}
	if seed, ok := cfg.GetSeed(); ok {
		r.baseSeed = seed
	} else {
		r.baseSeed = time.Now().UnixNano()
	}
	return r
}

// videoRand returns the random source of one video. It depends only on the
// base seed and the video name, so results do not depend on worker order.
func (r *Runner) videoRand(video string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(video))
	return rand.New(rand.NewSource(r.baseSeed ^ int64(h.Sum64())))
}

// VideoResult describes the processing of one video.
type VideoResult struct {
	Video      string
	Outcome    Outcome
	Err        error
	Duration   time.Duration
	Ridge      float64
	Attempts   int
	NTracklets int
}

// ProcessVideo runs the full pipeline for one video. Missing input is
// reported as OutcomeMissingInput with a nil error; any other failure
// returns OutcomeFailed and the error.
func (r *Runner) ProcessVideo(ctx context.Context, video string) (Outcome, error) {
	res := r.process(ctx, video)
	return res.Outcome, res.Err
}

func (r *Runner) process(ctx context.Context, video string) VideoResult {
	start := r.Clock.Now()
	res := r.cluster(ctx, video)
	res.Video = video
	res.Duration = r.Clock.Since(start)

	switch {
	case res.Err != nil:
		logf("%s: %v", video, res.Err)
	case r.Verbose:
		logf("%s -> %s (in %.2fs)", video, res.Outcome, res.Duration.Seconds())
	}
	r.record(res)
	return res
}

func (r *Runner) cluster(ctx context.Context, video string) VideoResult {
	if err := ctx.Err(); err != nil {
		return VideoResult{Outcome: OutcomeFailed, Err: err}
	}

	if err := security.ValidateVideoName(video); err != nil {
		return VideoResult{Outcome: OutcomeFailed, Err: err}
	}

	out := artifact.Path(r.ClustersDir, video)
	if r.FS.Exists(out) {
		return VideoResult{Outcome: OutcomeSkipped}
	}

	set, err := tracklet.Load(r.FS, r.TrackletsDir, video)
	if errors.Is(err, fs.ErrNotExist) {
		logf("%s: missing input, skipping: %v", video, err)
		return VideoResult{Outcome: OutcomeMissingInput}
	}
	if err != nil {
		return VideoResult{Outcome: OutcomeFailed, Err: err}
	}

	result, err := r.Engine.Cluster(set, r.videoRand(video))
	if err != nil {
		return VideoResult{Outcome: OutcomeFailed, Err: fmt.Errorf("cluster %s: %w", video, err), NTracklets: set.Len()}
	}

	a := artifact.FromResult(video, result, r.Clock.Now(), version.Version)
	data, err := artifact.Encode(a)
	if err != nil {
		return VideoResult{Outcome: OutcomeFailed, Err: fmt.Errorf("encode %s: %w", video, err), NTracklets: set.Len()}
	}
	if err := r.FS.MkdirAll(r.ClustersDir, 0o755); err != nil {
		return VideoResult{Outcome: OutcomeFailed, Err: fmt.Errorf("create %s: %w", r.ClustersDir, err)}
	}
	if err := fsutil.WriteFileAtomic(r.FS, out, data, 0o644); err != nil {
		return VideoResult{Outcome: OutcomeFailed, Err: fmt.Errorf("write %s: %w", out, err), NTracklets: set.Len()}
	}

	outcome := OutcomeClustered
	if result.Fallback {
		outcome = OutcomeFellBack
	}
	return VideoResult{
		Outcome:    outcome,
		Ridge:      result.Ridge,
		Attempts:   result.Attempts,
		NTracklets: set.Len(),
	}
}

func (r *Runner) record(res VideoResult) {
	if r.Recorder == nil || r.RunID == "" {
		return
	}
	rec := &db.VideoRecord{
		RunID:      r.RunID,
		Video:      res.Video,
		Outcome:    string(res.Outcome),
		Attempts:   res.Attempts,
		NTracklets: res.NTracklets,
		DurationMs: float64(res.Duration) / float64(time.Millisecond),
	}
	if res.Outcome == OutcomeClustered || res.Outcome == OutcomeFellBack {
		ridge := res.Ridge
		rec.Ridge = &ridge
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	if err := r.Recorder.RecordVideo(rec); err != nil {
		logf("record %s: %v", res.Video, err)
	}
}
