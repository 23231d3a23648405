// Command cluster-inspect prints cluster artifacts as tables: one row per
// tree node with its depth, leaf count and tracklet count. With -db it
// lists the recorded runs instead, or the videos of one run with -run.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/banshee-data/tracklet.hierarchy/internal/artifact"
	"github.com/banshee-data/tracklet.hierarchy/internal/cluster"
	"github.com/banshee-data/tracklet.hierarchy/internal/db"
	"github.com/banshee-data/tracklet.hierarchy/internal/fsutil"
)

func main() {
	dbPath := flag.String("db", "", "run registry to list instead of artifacts")
	runID := flag.String("run", "", "with -db, list the videos of this run")
	limit := flag.Int("limit", 20, "with -db, number of runs to list")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: cluster-inspect [artifact.json ...] | -db runs.db [-run ID]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *dbPath != "" {
		if err := inspectRegistry(*dbPath, *runID, *limit); err != nil {
			log.Fatal(err)
		}
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	fsys := fsutil.OSFileSystem{}
	for _, path := range flag.Args() {
		data, err := fsys.ReadFile(path)
		if err != nil {
			log.Fatalf("read %s: %v", path, err)
		}
		a, err := artifact.Decode(data)
		if err != nil {
			log.Fatalf("%s: %v", path, err)
		}
		fmt.Println(describe(a))
		fmt.Println(renderTree(a))
	}
}

func describe(a *artifact.Artifact) string {
	ridge := strconv.FormatFloat(a.Ridge, 'g', -1, 64)
	if a.Fallback {
		ridge = "fallback"
	}
	return fmt.Sprintf("%s: %d tracklets, %d leaves, ridge %s, %d attempts",
		a.Video, a.NTracklets, len(a.Tree.Leaves()), ridge, a.Attempts)
}

func newTable(headers ...string) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	return tw
}

func renderTree(a *artifact.Artifact) string {
	tw := newTable("Node", "Depth", "Kind", "Leaves", "Tracklets")
	for _, code := range a.Tree.Codes() {
		kind := "internal"
		if a.Tree.IsLeaf(code) {
			kind = "leaf"
		}
		label := strings.Repeat("  ", cluster.Depth(code)) + strconv.Itoa(code)
		tw.AppendRow(table.Row{label, cluster.Depth(code), kind, len(a.Tree.LeavesUnder(code)), len(a.Members(code))})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	return tw.Render()
}

func inspectRegistry(path, runID string, limit int) error {
	database, err := db.OpenDB(path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer database.Close()
	store := db.NewRunStore(database.DB)

	if runID != "" {
		videos, err := store.ListVideos(runID)
		if err != nil {
			return err
		}
		fmt.Println(renderVideos(videos))
		return nil
	}

	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	fmt.Println(renderRuns(runs))
	return nil
}

func renderRuns(runs []*db.Run) string {
	tw := newTable("Run", "Mode", "Workers", "Status", "Videos", "Clustered", "Fallback", "Skipped", "Missing", "Failed")
	for _, r := range runs {
		c := r.Counts
		tw.AppendRow(table.Row{r.RunID, r.Mode, r.Workers, r.Status, c.Total, c.Clustered, c.FellBack, c.Skipped, c.Missing, c.Failed})
	}
	return tw.Render()
}

func renderVideos(videos []db.VideoRecord) string {
	tw := newTable("Video", "Outcome", "Ridge", "Attempts", "Tracklets", "ms", "Error")
	for _, v := range videos {
		ridge := ""
		if v.Ridge != nil {
			ridge = strconv.FormatFloat(*v.Ridge, 'g', -1, 64)
		}
		tw.AppendRow(table.Row{v.Video, v.Outcome, ridge, v.Attempts, v.NTracklets, fmt.Sprintf("%.1f", v.DurationMs), v.Error})
	}
	return tw.Render()
}
