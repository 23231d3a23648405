package cluster

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/tracklet.hierarchy/internal/config"
	"github.com/banshee-data/tracklet.hierarchy/internal/monitoring"
	"github.com/banshee-data/tracklet.hierarchy/internal/spectral"
	"github.com/banshee-data/tracklet.hierarchy/internal/tracklet"
)

var engineLogf = monitoring.Component("Engine")

// Result is the outcome of clustering one video.
type Result struct {
	BestLabels []int
	IntPaths   []int
	Tree       Tree

	// Ridge is the ridge of the successful attempt, or FallbackRidge.
	Ridge    float64
	Fallback bool

	// Attempts counts embedding attempts, zero when the spectral path was
	// not tried at all.
	Attempts            int
	InSample            int
	SamplingProbability float64
	FailureReason       string
}

// Engine runs the clustering pass of a single video. It holds no state
// between calls and is safe for concurrent use when the Embedder and
// Bipartitioner are.
type Engine struct {
	Config        *config.ClusteringConfig
	Embedder      Embedder
	Bipartitioner Bipartitioner
}

// NewEngine returns an engine backed by the Nystrom embedding and the
// recursive two-means bisector.
func NewEngine(cfg *config.ClusteringConfig) *Engine {
	return NewEngineWith(cfg,
		spectral.Nystrom{Dims: cfg.GetEmbeddingDims()},
		spectral.Bisector{MinLeafSize: cfg.GetMinLeafSize(), MaxDepth: cfg.GetMaxDepth()},
	)
}

// NewEngineWith returns an engine with custom spectral routines.
func NewEngineWith(cfg *config.ClusteringConfig, emb Embedder, bip Bipartitioner) *Engine {
	if cfg == nil {
		cfg = config.DefaultClusteringConfig()
	}
	return &Engine{Config: cfg, Embedder: emb, Bipartitioner: bip}
}

// RidgePolicy returns the escalation policy of the engine's config.
func (e *Engine) RidgePolicy() RidgePolicy {
	return RidgePolicy{
		Initial:       e.Config.GetInitialRidge(),
		Factor:        e.Config.GetRidgeFactor(),
		Max:           e.Config.GetMaxRidge(),
		TriesPerRidge: e.Config.GetTriesPerRidge(),
	}
}

func (e *Engine) sampleOptions() SampleOptions {
	return SampleOptions{
		NX:          e.Config.GetGridNX(),
		NY:          e.Config.GetGridNY(),
		Probability: e.Config.GetSamplingProbability(),
		MinInSample: e.Config.GetMinInSample(),
	}
}

// Cluster groups the tracklets of one video into a binary tree.
//
// Numerical failures of the embedding or bipartition are retried under the
// ridge policy and then resolved by the temporal fallback split, so a
// valid set always yields a result. Other errors are returned.
func (e *Engine) Cluster(set *tracklet.Set, rng *rand.Rand) (*Result, error) {
	if set == nil || set.Len() == 0 {
		return nil, ErrEmptyTrackletSet
	}
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tracklet set: %w", err)
	}

	times := set.Times()
	if set.Len() < e.Config.GetMinInSample() {
		return e.fallback(times, 0, fmt.Sprintf("%d tracklets, below the in-sample minimum", set.Len()))
	}

	ch := tracklet.BuildChannels(set)
	points := set.EndPositions()
	positions := set.PositionTable()
	opts := e.sampleOptions()
	policy := e.RidgePolicy()

	attempts := 0
	var lastErr error
	for _, ridge := range policy.Schedule() {
		for try := 0; try < policy.Tries(); try++ {
			part, p, err := SampleWithEscalation(points, opts, rng)
			if err != nil {
				if errors.Is(err, ErrTooFewTracklets) {
					return e.fallback(times, attempts, err.Error())
				}
				return nil, err
			}

			attempts++
			res, err := e.attempt(ch, part, positions, ridge)
			if err != nil {
				if !IsNumericalFailure(err) {
					return nil, err
				}
				lastErr = err
				engineLogf("attempt %d (ridge %g, %d in-sample) failed: %v", attempts, ridge, len(part.In), err)
				continue
			}
			res.Attempts = attempts
			res.InSample = len(part.In)
			res.SamplingProbability = p
			return res, nil
		}
	}

	reason := "no embedding attempts"
	if lastErr != nil {
		reason = lastErr.Error()
	}
	return e.fallback(times, attempts, reason)
}

// attempt runs one embedding and bipartition on a fixed sample.
func (e *Engine) attempt(ch tracklet.Channels, part Partition, positions [][]float64, ridge float64) (*Result, error) {
	a, medians := ProductKernel(ch, part.In, part.In, nil)
	var b *mat.Dense
	if len(part.Out) > 0 {
		b, _ = ProductKernel(ch, part.In, part.Out, medians)
	}
	sim := Augment(a, b)

	emb, err := e.Embedder.Embed(sim, ridge)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	full, err := scatter(emb, part)
	if err != nil {
		return nil, err
	}
	labels, paths, err := e.Bipartitioner.Bipartition(full, positions)
	if err != nil {
		return nil, fmt.Errorf("bipartition: %w", err)
	}
	if len(labels) != len(positions) || len(paths) != len(positions) {
		return nil, fmt.Errorf("bipartition returned %d labels and %d paths for %d tracklets", len(labels), len(paths), len(positions))
	}
	tree, err := ReconstructTree(paths)
	if err != nil {
		return nil, fmt.Errorf("reconstruct tree: %w", err)
	}
	return &Result{
		BestLabels: labels,
		IntPaths:   paths,
		Tree:       tree,
		Ridge:      ridge,
	}, nil
}

func (e *Engine) fallback(times []float64, attempts int, reason string) (*Result, error) {
	engineLogf("using temporal fallback after %d attempts: %s", attempts, reason)
	labels, paths := FallbackSplit(times)
	tree, err := ReconstructTree(paths)
	if err != nil {
		return nil, fmt.Errorf("reconstruct fallback tree: %w", err)
	}
	return &Result{
		BestLabels:    labels,
		IntPaths:      paths,
		Tree:          tree,
		Ridge:         FallbackRidge,
		Fallback:      true,
		Attempts:      attempts,
		FailureReason: reason,
	}, nil
}
