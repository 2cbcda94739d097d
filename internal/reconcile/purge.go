package reconcile

import (
	"encoding/json"
	"sort"

	"github.com/festy23/prtracker/internal/prkey"
	pullrequestModel "github.com/festy23/prtracker/internal/pullrequest/model"
	storageModel "github.com/festy23/prtracker/internal/storage/model"
)

// UnknownKeys lists records carrying an unknown project or repository, plus their paired stats.
func UnknownKeys(entries storageModel.Items) []string {
	var out []string
	for k, raw := range entries {
		if !prkey.IsInfoKey(k) {
			continue
		}
		var record pullrequestModel.Record
		if err := json.Unmarshal(raw, &record); err != nil || !record.IsUnknown() {
			continue
		}

		out = append(out, k)
		if stats := prkey.StatsKeyFromInfoKey(k); hasKey(entries, stats) {
			out = append(out, stats)
		}
	}
	sort.Strings(out)
	return out
}

func hasKey(entries storageModel.Items, k string) bool {
	_, ok := entries[k]
	return ok
}
