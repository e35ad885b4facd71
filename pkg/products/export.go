package products

import (
	"fmt"
	"io"
	"time"

	"github.com/jszwec/csvutil"
)

// csvRecord mirrors Record with the column names used by the catalog exports.
type csvRecord struct {
	Provider     string `csv:"analysis_center"`
	Project      string `csv:"project"`
	SolutionType string `csv:"solution_type"`
	Date         string `csv:"date"`
	PeriodDays   int    `csv:"period_days"`
	Resolution   string `csv:"resolution"`
	Content      string `csv:"content"`
	Format       string `csv:"format"`
}

// WriteCSV writes the record set as CSV with a header row, for inspection or
// spreadsheet import.
func WriteCSV(w io.Writer, recs []Record) error {
	rows := make([]csvRecord, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, csvRecord{
			Provider:     r.Provider,
			Project:      r.Project,
			SolutionType: r.SolutionType,
			Date:         r.Date.Format("2006-01-02 15:04:05"),
			PeriodDays:   int(r.Period / (24 * time.Hour)),
			Resolution:   r.Resolution,
			Content:      r.Content,
			Format:       r.Format,
		})
	}

	b, err := csvutil.Marshal(rows)
	if err != nil {
		return fmt.Errorf("could not marshal records: %w", err)
	}
	_, err = w.Write(b)
	return err
}
