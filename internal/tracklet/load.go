package tracklet

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/tracklet.hierarchy/internal/fsutil"
)

// Paths returns the object and trajectory CSV paths of a video under root.
func Paths(root, video string) (objPath, trjPath string) {
	return filepath.Join(root, "obj", video+".csv"), filepath.Join(root, "trj", video+".csv")
}

// Load reads both tables of a video. A missing file surfaces as an error
// wrapping fs.ErrNotExist so callers can distinguish missing input from
// malformed input.
func Load(fsys fsutil.FileSystem, root, video string) (*Set, error) {
	objPath, trjPath := Paths(root, video)

	objects, err := readTable(fsys, objPath)
	if err != nil {
		return nil, fmt.Errorf("objects for %s: %w", video, err)
	}
	trajectories, err := readTable(fsys, trjPath)
	if err != nil {
		return nil, fmt.Errorf("trajectories for %s: %w", video, err)
	}

	set := &Set{Objects: objects, Trajectories: trajectories}
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("video %s: %w", video, err)
	}
	return set, nil
}

func readTable(fsys fsutil.FileSystem, path string) ([][]float64, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses a numeric table. Blank lines and lines starting with '#'
// are skipped.
func ReadCSV(r io.Reader) ([][]float64, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows [][]float64
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make([]float64, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				line, _ := cr.FieldPos(j)
				return nil, fmt.Errorf("line %d column %d: %w", line, j+1, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteCSV writes a numeric table using the shortest exact float formatting.
func WriteCSV(w io.Writer, rows [][]float64) error {
	cw := csv.NewWriter(w)
	for _, row := range rows {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
