package sim

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	records := []Record{
		{Seed: 1, Ticks: 1000, Seconds: 10, Winner: 0, Hits: 6, Misses: 2, SurvivorHP: 50},
		{Seed: 2, Ticks: 3000, Seconds: 30, Winner: 1, Hits: 2, Misses: 6, SurvivorHP: 80},
		{Seed: 3, Ticks: 2000, Seconds: 20, Winner: -1, Hits: 4, Misses: 4},
	}

	s := Summarize(records)
	assert.Equal(t, 3, s.Battles)
	assert.Equal(t, map[int]int{0: 1, 1: 1, -1: 1}, s.Wins)
	assert.InDelta(t, 20.0, s.MeanSeconds, 1e-9)
	assert.InDelta(t, 10.0, s.StdSeconds, 1e-9)
	assert.Equal(t, 2000.0, s.MedianTicks)
	assert.InDelta(t, 4.0, s.MeanHits, 1e-9)
	assert.InDelta(t, 0.5, s.HitRate, 1e-9)
	assert.InDelta(t, 65.0, s.MeanSurvivor, 1e-9)

	out := s.String()
	assert.Contains(t, out, "draws:")
	assert.Contains(t, out, "team 1 wins:")
}

func TestSummarize_Edges(t *testing.T) {
	assert.Equal(t, 0, Summarize(nil).Battles)

	s := Summarize([]Record{{Seconds: 5, Winner: -1}})
	assert.Equal(t, 0.0, s.StdSeconds)
	assert.Equal(t, 0.0, s.HitRate)
	assert.Equal(t, 0.0, s.MeanSurvivor)
}

func TestWriteCSV(t *testing.T) {
	records := []Record{{Scenario: "duel", Seed: 7, Ticks: 120, Seconds: 1.2, Winner: 1, Hits: 3, DamageDealt: 99.5}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))
	header, _, _ := strings.Cut(buf.String(), "\n")
	assert.Equal(t, "scenario,seed,ticks,seconds,winner,hits,misses,launches,rams,destroyed,derelicts,damage_dealt,survivor_hp_pct", header)

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, records, back)
}
