package sim

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"
)

// WriteCSV writes the records with a header row.
func WriteCSV(w io.Writer, records []Record) error {
	if err := gocsv.Marshal(records, w); err != nil {
		return fmt.Errorf("writing battle csv: %w", err)
	}
	return nil
}

// ReadCSV parses records written by WriteCSV.
func ReadCSV(r io.Reader) ([]Record, error) {
	var records []Record
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("reading battle csv: %w", err)
	}
	return records, nil
}

// Records extracts the CSV records of a batch.
func Records(outcomes []Outcome) []Record {
	out := make([]Record, len(outcomes))
	for i, o := range outcomes {
		out[i] = o.Record
	}
	return out
}

// Summary aggregates a batch.
type Summary struct {
	Battles      int
	Wins         map[int]int // by team; draws under -1
	MeanSeconds  float64
	StdSeconds   float64
	MedianTicks  float64
	MeanHits     float64
	HitRate      float64 // hits / (hits + misses) over beam shots
	MeanSurvivor float64 // mean winner HP percentage over decided battles
}

// Summarize computes batch statistics.
func Summarize(records []Record) Summary {
	s := Summary{Battles: len(records), Wins: make(map[int]int)}
	if len(records) == 0 {
		return s
	}

	seconds := make([]float64, len(records))
	ticks := make([]float64, len(records))
	hits := make([]float64, len(records))
	var survivor []float64
	var shots, hit int
	for i, r := range records {
		s.Wins[r.Winner]++
		seconds[i] = r.Seconds
		ticks[i] = float64(r.Ticks)
		hits[i] = float64(r.Hits)
		hit += r.Hits
		shots += r.Hits + r.Misses
		if r.Winner >= 0 {
			survivor = append(survivor, r.SurvivorHP)
		}
	}

	s.MeanSeconds, s.StdSeconds = stat.MeanStdDev(seconds, nil)
	if len(records) == 1 {
		s.StdSeconds = 0
	}
	slices.Sort(ticks)
	s.MedianTicks = stat.Quantile(0.5, stat.Empirical, ticks, nil)
	s.MeanHits = stat.Mean(hits, nil)
	if shots > 0 {
		s.HitRate = float64(hit) / float64(shots)
	}
	if len(survivor) > 0 {
		s.MeanSurvivor = stat.Mean(survivor, nil)
	}
	return s
}

// String renders the summary for terminal output.
func (s Summary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "battles:        %d\n", s.Battles)

	teams := make([]int, 0, len(s.Wins))
	for t := range s.Wins {
		teams = append(teams, t)
	}
	slices.Sort(teams)
	for _, t := range teams {
		label := fmt.Sprintf("team %d wins:", t)
		if t < 0 {
			label = "draws:"
		}
		fmt.Fprintf(&sb, "%-15s %d\n", label, s.Wins[t])
	}

	fmt.Fprintf(&sb, "duration:       %.2fs ± %.2fs (median %.0f ticks)\n", s.MeanSeconds, s.StdSeconds, s.MedianTicks)
	fmt.Fprintf(&sb, "hits/battle:    %.2f (hit rate %.1f%%)\n", s.MeanHits, s.HitRate*100)
	fmt.Fprintf(&sb, "survivor hp:    %.1f%%\n", s.MeanSurvivor)
	return sb.String()
}
