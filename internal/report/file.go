package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/groveale/copilot-usage-scraper/internal/model"
)

// LoadFile reads report rows from a local JSON file: either a bare array of
// rows or a paginated response body with a "value" array. Used for offline
// ingestion and backfills.
func LoadFile(path string) ([]model.UsageRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("report: reading %s: %w", path, err)
	}

	var wire []wireRow
	if err := json.Unmarshal(data, &wire); err != nil {
		var page reportPage
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("report: parsing %s: %w", path, err)
		}
		wire = page.Value
	}

	rows := make([]model.UsageRow, 0, len(wire))
	for _, w := range wire {
		rows = append(rows, w.toUsageRow())
	}
	return rows, nil
}
