package products

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SamGreenwood04/Ginan-UI/pkg/gpstime"
	"github.com/sirupsen/logrus"
)

// Lister fetches the raw filename listing of one GPS weeks archive directory.
// cddis.Client implements it.
type Lister interface {
	ListWeek(ctx context.Context, week int) ([]string, error)
}

// Builder builds the product catalog for a time window.
type Builder struct {
	Lister  Lister
	Formats []string       // desired product formats, defaults to DefaultFormats
	Logger  *logrus.Logger // defaults to the standard logger
}

// Build crawls every GPS week overlapping [start, end] in ascending order and
// returns the de-duplicated records whose format is desired and whose date
// lies within the window. Listing entries matching neither naming era are
// logged and skipped. A failed week listing aborts the whole build: a missing
// week would silently under-report provider coverage and corrupt gap
// detection downstream.
func (b *Builder) Build(ctx context.Context, start, end time.Time) ([]Record, error) {
	log := b.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	formats := b.Formats
	if len(formats) == 0 {
		formats = DefaultFormats
	}
	desired := make(map[string]struct{}, len(formats))
	for _, f := range formats {
		desired[strings.ToUpper(f)] = struct{}{}
	}

	var recs []Record
	for _, week := range gpstime.Weeks(start, end) {
		names, err := b.Lister.ListWeek(ctx, week)
		if err != nil {
			return nil, fmt.Errorf("catalog: week %d: %w", week, err)
		}
		log.Debugf("week %d: %d listing entries", week, len(names))

		for _, name := range names {
			rec, ok := DecodeFilename(name)
			if !ok {
				log.Infof("skipping unrecognized listing entry %s", name)
				continue
			}
			if _, ok := desired[rec.Format]; !ok {
				continue
			}
			if rec.Date.Before(start) || rec.Date.After(end) {
				continue
			}
			recs = append(recs, rec)
		}
	}

	return Dedupe(recs), nil
}
