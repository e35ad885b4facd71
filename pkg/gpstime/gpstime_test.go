package gpstime

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeek(t *testing.T) {
	assert := assert.New(t)

	tests := []struct {
		date time.Time
		want int
	}{
		{Epoch, 0},
		{time.Date(1980, 1, 12, 23, 59, 59, 0, time.UTC), 0},
		{time.Date(1980, 1, 13, 0, 0, 0, 0, time.UTC), 1},
		{time.Date(2022, 11, 20, 0, 0, 0, 0, time.UTC), 2237},
		{time.Date(2023, 9, 16, 0, 0, 0, 0, time.UTC), 2279},
	}

	for _, tt := range tests {
		assert.Equal(tt.want, Week(tt.date), "week for %s", tt.date)
	}
}

func TestWeekStart(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(Epoch, WeekStart(0))
	assert.Equal(time.Date(2022, 11, 20, 0, 0, 0, 0, time.UTC), WeekStart(2237))
	assert.Equal(time.Date(2023, 9, 10, 0, 0, 0, 0, time.UTC), WeekStart(2279))
}

func TestDayOfWeek(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(0, DayOfWeek(time.Date(2023, 9, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(6, DayOfWeek(time.Date(2023, 9, 16, 12, 0, 0, 0, time.UTC)))
}

func TestFromWeekDay(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(time.Date(2023, 9, 16, 0, 0, 0, 0, time.UTC), FromWeekDay(2279, 6))
	assert.Equal(WeekStart(2279), FromWeekDay(2279, 0))
}

func TestWeeks(t *testing.T) {
	assert := assert.New(t)

	start := time.Date(2023, 9, 16, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 9, 17, 0, 0, 0, 0, time.UTC)
	assert.Equal([]int{2279, 2280}, Weeks(start, end))

	assert.Equal([]int{2279}, Weeks(start, start))
	assert.Nil(Weeks(end, start))
}

func TestFromDoy(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(time.Date(2023, 9, 16, 0, 0, 0, 0, time.UTC), FromDoy(2023, 259))
	assert.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), FromDoy(2024, 1))
	assert.Equal(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), FromDoy(2024, 366))
}

func ExampleWeek() {
	fmt.Println(Week(time.Date(2023, 9, 16, 0, 0, 0, 0, time.UTC)))
	// Output: 2279
}
