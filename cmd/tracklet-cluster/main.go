// Command tracklet-cluster builds the hierarchical tracklet clustering of
// every listed video and writes one artifact per video.
//
// Videos are read from a list file (one name per line) or, without -videos,
// from the object tables under <tracklets>/obj. The slice
// [-start, -start+-count) is processed in order with -workers 1; with more
// workers the same slice is shuffled into a shared queue.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/banshee-data/tracklet.hierarchy/internal/config"
	"github.com/banshee-data/tracklet.hierarchy/internal/db"
	"github.com/banshee-data/tracklet.hierarchy/internal/fsutil"
	"github.com/banshee-data/tracklet.hierarchy/internal/monitoring"
	"github.com/banshee-data/tracklet.hierarchy/internal/runner"
	"github.com/banshee-data/tracklet.hierarchy/internal/version"
)

func main() {
	var (
		trackletsDir string
		clustersDir  string
		videosFile   string
		configPath   string
		dbPath       string
		start        int
		count        int
		workers      int
		seed         int64
		verbose      bool
		quiet        bool
		showVersion  bool
	)

	flag.StringVar(&trackletsDir, "tracklets", "tracklets", "directory holding obj/<video>.csv and trj/<video>.csv")
	flag.StringVar(&clustersDir, "clusters", "clusters", "output directory for <video>.json artifacts")
	flag.StringVar(&videosFile, "videos", "", "file listing one video per line (default: scan <tracklets>/obj)")
	flag.StringVar(&configPath, "config", "", "clustering config JSON (default: built-in defaults)")
	flag.StringVar(&dbPath, "db", "", "optional sqlite run registry")
	flag.IntVar(&start, "start", 0, "index of the first video to process")
	flag.IntVar(&count, "count", 0, "number of videos to process (0 = all remaining)")
	flag.IntVar(&workers, "workers", 0, "worker goroutines; >1 selects the shuffled pool (default: from config)")
	flag.Int64Var(&seed, "seed", 0, "random seed (default: from config, else time based)")
	flag.BoolVar(&verbose, "verbose", false, "log one status line per video")
	flag.BoolVar(&quiet, "quiet", false, "suppress engine and runner diagnostics")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version.String())
		return
	}
	if quiet {
		monitoring.SetLogger(nil)
	}

	cfg := config.DefaultClusteringConfig()
	if configPath != "" {
		loaded, err := config.LoadClusteringConfig(configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			cfg = cfg.WithSeed(seed)
		case "workers":
			w := workers
			cfg.Workers = &w
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	fsys := fsutil.OSFileSystem{}
	videos, err := listVideos(fsys, videosFile, trackletsDir)
	if err != nil {
		log.Fatalf("list videos: %v", err)
	}
	if len(videos) == 0 {
		log.Fatalf("no videos found")
	}

	r := runner.New(fsys, cfg, trackletsDir, clustersDir)
	r.Verbose = verbose

	mode := "range"
	if cfg.GetWorkers() > 1 {
		mode = "pool"
	}

	var store *db.RunStore
	if dbPath != "" {
		database, err := db.NewDB(dbPath)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer database.Close()

		store = db.NewRunStore(database.DB)
		params, _ := cfg.ToJSON()
		r.RunID, err = store.StartRun(mode, cfg.GetWorkers(), params)
		if err != nil {
			log.Fatalf("start run: %v", err)
		}
		r.Recorder = store
		log.Printf("run %s recording to %s", r.RunID, dbPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := runBatch(ctx, r, videos, start, count, cfg.GetWorkers())

	if store != nil && sum != nil {
		status := db.RunStatusCompleted
		if err != nil || sum.Failed > 0 {
			status = db.RunStatusFailed
		}
		if cerr := store.CompleteRun(r.RunID, sum.Counts(), status); cerr != nil {
			log.Printf("complete run: %v", cerr)
		}
	}
	if err != nil {
		log.Fatalf("batch stopped: %v", err)
	}

	log.Printf("%s", sum)
	for _, v := range sum.FailedVideos() {
		log.Printf("failed %s: %v", v, sum.Errors[v])
	}
	if sum.Failed > 0 {
		os.Exit(1)
	}
}

// runBatch processes videos[start:start+count]. More than one worker runs
// that slice through the shuffled pool; otherwise it runs in order.
func runBatch(ctx context.Context, r *runner.Runner, videos []string, start, count, workers int) (*runner.Summary, error) {
	if workers <= 1 {
		return r.RunRange(ctx, videos, start, count)
	}
	batch, err := runner.Slice(videos, start, count)
	if err != nil {
		return nil, err
	}
	return r.RunPool(ctx, batch, workers)
}

func listVideos(fsys fsutil.FileSystem, videosFile, trackletsDir string) ([]string, error) {
	if videosFile != "" {
		info, err := fsys.Stat(videosFile)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory, want a list file", videosFile)
		}
		f, err := fsys.Open(videosFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return readVideoList(f)
	}

	entries, err := fsys.ReadDir(filepath.Join(trackletsDir, "obj"))
	if err != nil {
		return nil, err
	}
	var videos []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".csv" {
			continue
		}
		videos = append(videos, strings.TrimSuffix(e.Name(), ".csv"))
	}
	return videos, nil
}

// readVideoList reads one video name per line; blank lines and '#'
// comments are ignored.
func readVideoList(r io.Reader) ([]string, error) {
	var videos []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		videos = append(videos, line)
	}
	return videos, sc.Err()
}
