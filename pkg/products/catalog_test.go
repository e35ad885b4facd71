package products

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

// fakeLister serves canned week listings and records which weeks were asked for.
type fakeLister struct {
	listings map[int][]string
	failWeek int
	asked    []int
}

func (f *fakeLister) ListWeek(_ context.Context, week int) ([]string, error) {
	f.asked = append(f.asked, week)
	if week == f.failWeek {
		return nil, errors.New("listing unavailable")
	}
	return f.listings[week], nil
}

func TestBuild(t *testing.T) {
	assert := assert.New(t)

	lister := &fakeLister{listings: map[int][]string{
		2279: {
			"COD0OPSFIN_20232590000_01D_05M_ORB.SP3.gz",
			"COD0OPSFIN_20232590000_01D_30S_CLK.CLK.gz",
			"COD0OPSFIN_20232590000_01D_01D_OSB.BIA.gz",
			"COD0OPSFIN_20232550000_01D_05M_ORB.SP3.gz", // before the window
			"COD0OPSFIN_20232530000_07D_01D_SOL.SNX.gz", // format not desired
			"MD5SUMS", // no product file
		},
		2280: {
			"COD0OPSFIN_20232600000_01D_05M_ORB.SP3.gz",
			"COD0OPSFIN_20232600000_01D_05M_ORB.SP3.gz", // listed twice
		},
	}, failWeek: -1}

	b := &Builder{Lister: lister}
	start := time.Date(2023, 9, 16, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 9, 17, 0, 0, 0, 0, time.UTC)

	recs, err := b.Build(context.Background(), start, end)
	assert.NoError(err)

	// both weeks crawled, ascending
	assert.Equal([]int{2279, 2280}, lister.asked)

	assert.Len(recs, 4)
	for _, r := range recs {
		assert.False(r.Date.Before(start), "record %s before window", r)
		assert.False(r.Date.After(end), "record %s after window", r)
		assert.Contains(DefaultFormats, r.Format)
	}

	// a record dated exactly on the window end is kept
	assert.Equal(time.Date(2023, 9, 17, 0, 0, 0, 0, time.UTC), recs[3].Date)
}

func TestBuildReportsSkippedEntries(t *testing.T) {
	assert := assert.New(t)

	lister := &fakeLister{listings: map[int][]string{
		2279: {
			"MD5SUMS",
			"COD0OPSFIN_20232590000_01D_05M_ORB.SP3.gz",
		},
	}, failWeek: -1}

	logger, hook := logrustest.NewNullLogger()
	b := &Builder{Lister: lister, Logger: logger}

	start := time.Date(2023, 9, 14, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 9, 16, 0, 0, 0, 0, time.UTC)

	recs, err := b.Build(context.Background(), start, end)
	assert.NoError(err)
	assert.Len(recs, 1)

	// a listing entry matching neither naming era shows up at info level
	skips := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.InfoLevel && strings.Contains(e.Message, "MD5SUMS") {
			skips++
		}
	}
	assert.Equal(1, skips)
}

func TestBuildListingError(t *testing.T) {
	assert := assert.New(t)

	lister := &fakeLister{listings: map[int][]string{
		2279: {"COD0OPSFIN_20232590000_01D_05M_ORB.SP3.gz"},
	}, failWeek: 2280}

	b := &Builder{Lister: lister}
	start := time.Date(2023, 9, 16, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 9, 17, 0, 0, 0, 0, time.UTC)

	recs, err := b.Build(context.Background(), start, end)
	assert.Error(err)
	assert.Nil(recs, "no partial result on a failed week")
	assert.Contains(err.Error(), "week 2280")
}

func TestBuildCustomFormats(t *testing.T) {
	assert := assert.New(t)

	lister := &fakeLister{listings: map[int][]string{
		2279: {
			"COD0OPSFIN_20232530000_07D_01D_SOL.SNX.gz",
			"COD0OPSFIN_20232550000_01D_05M_ORB.SP3.gz",
		},
	}, failWeek: -1}

	b := &Builder{Lister: lister, Formats: []string{"snx"}}
	start := time.Date(2023, 9, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 9, 17, 0, 0, 0, 0, time.UTC)

	recs, err := b.Build(context.Background(), start, end)
	assert.NoError(err)
	assert.Len(recs, 1)
	assert.Equal("SNX", recs[0].Format)
}

func TestDedupe(t *testing.T) {
	assert := assert.New(t)

	a := Record{Provider: "COD", Project: "OPS", SolutionType: "FIN",
		Date: time.Date(2023, 9, 16, 0, 0, 0, 0, time.UTC), Period: 24 * time.Hour, Format: "SP3"}
	b := a
	c := a
	c.Format = "CLK"

	got := Dedupe([]Record{a, b, c})
	assert.Equal([]Record{a, c}, got)
}
