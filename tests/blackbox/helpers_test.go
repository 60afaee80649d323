//go:build blackbox

package blackbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func contains(s, sub string) bool { return strings.Contains(s, sub) }

func f64(x float64) string {
	// stable formatting, enough precision for FX ticks
	return fmt.Sprintf("%.5f", x)
}

// writeTicks writes n rising EURUSD ticks one minute apart from 9:20,
// then one tick past the end of the window when closeDay is set.
func writeTicks(t *testing.T, dir string, n int, closeDay bool) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("time,symbol,bid,ask\n")
	start := time.Date(2024, 3, 4, 9, 20, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		bid := 1.10000 + 0.00001*float64(i)
		at := start.Add(time.Duration(i) * time.Second)
		b.WriteString(at.Format(time.RFC3339) + ",EURUSD," + f64(bid) + "," + f64(bid+0.0001) + "\n")
	}
	if closeDay {
		b.WriteString("2024-03-04T17:51:00Z,EURUSD,1.10300,1.10310\n")
	}
	path := filepath.Join(dir, "ticks.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeConfig(t *testing.T, dir, ticks, interval string) string {
	t.Helper()
	cfg := `session:
  symbol: EURUSD
  magic: 777
  lot: 0.1
  regular:
    stop_loss: 0
    take_profit: 0
  window:
    start: "9:15"
    finishing: "17:30"
    ending: "17:50"
runner:
  interval: ` + interval + `
  timeframe: M1
  strategy: macross
  params:
    short: 2
    long: 4
paper:
  ticks: ` + ticks + `
  balance: 10000
journal:
  type: sqlite
  path: ` + filepath.Join(dir, "deals.db") + `
log:
  level: info
  output: ` + filepath.Join(dir, "advisor.log") + `
`
	path := filepath.Join(dir, "advisor.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}
