package cluster

import (
	"os"
	"testing"

	"github.com/banshee-data/tracklet.hierarchy/internal/monitoring"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}
