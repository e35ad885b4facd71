package metadata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTasks(t *testing.T) {
	assert := assert.New(t)

	tasks := Tasks()
	assert.Len(tasks, 13)

	names := make([]string, 0, len(tasks))
	for _, task := range tasks {
		names = append(names, task.Name())
	}
	assert.Contains(names, "igs20.atx")
	assert.Contains(names, "igs_satellite_metadata.snx")
	assert.Contains(names, "OLOAD_GO.BLQ.gz")
	assert.Contains(names, EOPName)
}

func TestURLs(t *testing.T) {
	assert := assert.New(t)

	all := URLs()
	assert.Len(all, 13)
	for _, u := range all {
		assert.True(strings.HasPrefix(u, "https://"), u)
	}

	// callers get their own copy
	all[0] = "https://example.org/tampered"
	assert.NotEqual(all[0], URLs()[0])
}
