// Package reconcile moves storage entries written under older key schemes onto canonical keys.
package reconcile

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"

	"github.com/festy23/prtracker/internal/prkey"
	pullrequestModel "github.com/festy23/prtracker/internal/pullrequest/model"
	storageModel "github.com/festy23/prtracker/internal/storage/model"
)

// Skip is an entry left untouched because it could not be normalized.
type Skip struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// Plan is the set of storage changes that normalizes a snapshot.
type Plan struct {
	Writes  storageModel.Items
	Deletes []string
	Skipped []Skip
}

// Empty reports whether applying p would change nothing.
func (p Plan) Empty() bool {
	return len(p.Writes) == 0 && len(p.Deletes) == 0
}

// Apply returns entries with p applied, writes first.
func (p Plan) Apply(entries storageModel.Items) storageModel.Items {
	out := entries.Clone()
	for k, v := range p.Writes {
		out[k] = v
	}
	for _, k := range p.Deletes {
		delete(out, k)
	}
	return out
}

type planner struct {
	entries storageModel.Items
	plan    Plan
	deletes map[string]struct{}
}

// NewPlan computes the normalization of entries. It does not touch storage.
//
// Keys are visited in sorted order. Within the record pass a later source overwrites an
// earlier one; the legacy pass never overwrites a key already staged, but still removes
// the superseded source. A key that is a write target is never deleted.
func NewPlan(entries storageModel.Items) Plan {
	pl := &planner{
		entries: entries,
		plan:    Plan{Writes: storageModel.Items{}, Skipped: []Skip{}},
		deletes: map[string]struct{}{},
	}

	keys := entries.Keys()
	sort.Strings(keys)

	for _, k := range keys {
		if prkey.IsInfoKey(k) {
			pl.normalizeRecord(k)
		}
	}
	for _, k := range keys {
		if !prkey.IsInfoKey(k) {
			pl.normalizeLegacy(k)
		}
	}

	pl.plan.Deletes = make([]string, 0, len(pl.deletes))
	for k := range pl.deletes {
		if _, written := pl.plan.Writes[k]; !written {
			pl.plan.Deletes = append(pl.plan.Deletes, k)
		}
	}
	sort.Strings(pl.plan.Deletes)
	return pl.plan
}

// normalizeRecord relocates a record, and its paired stats, to the key named by its url.
func (pl *planner) normalizeRecord(infoKey string) {
	var record pullrequestModel.Record
	if err := json.Unmarshal(pl.entries[infoKey], &record); err != nil {
		pl.skip(infoKey, "record is not an object")
		return
	}

	key, err := canonicalFromRecord(infoKey, record)
	if err != nil {
		pl.skip(infoKey, err.Error())
		return
	}
	if key == "" || key.InfoKey() == infoKey {
		return
	}

	pl.stage(key.InfoKey(), pl.entries[infoKey], infoKey)

	oldStats := prkey.StatsKeyFromInfoKey(infoKey)
	if v, ok := pl.entries[oldStats]; ok && oldStats != key.String() {
		pl.stage(key.String(), v, oldStats)
	}
}

// normalizeLegacy relocates a stats entry whose key carries its number in a legacy shape.
func (pl *planner) normalizeLegacy(k string) {
	if k == prkey.CacheKey {
		return
	}
	key, ok := prkey.ResolveFromLegacyKey(k)
	if !ok || key.String() == k {
		return
	}

	if _, staged := pl.plan.Writes[key.String()]; staged {
		pl.deletes[k] = struct{}{}
		return
	}
	pl.stage(key.String(), pl.entries[k], k)
}

func (pl *planner) stage(target string, value json.RawMessage, source string) {
	pl.plan.Writes[target] = value
	pl.deletes[source] = struct{}{}
}

func (pl *planner) skip(k, reason string) {
	pl.plan.Skipped = append(pl.plan.Skipped, Skip{Key: k, Reason: reason})
}

// canonicalFromRecord takes the key from the record's url. Unlike a url-only rule, a record
// whose url has no pull request number falls back to the digits of its own key
// instead of being skipped.
func canonicalFromRecord(infoKey string, record pullrequestModel.Record) (prkey.Key, error) {
	if record.URL != "" {
		if _, err := url.Parse(record.URL); err != nil {
			return "", fmt.Errorf("malformed url: %w", err)
		}
		if key, err := prkey.FromURL(record.URL); err == nil {
			return key, nil
		}
	}

	key, ok := prkey.ResolveFromLegacyKey(prkey.StatsKeyFromInfoKey(infoKey))
	if !ok {
		return "", nil
	}
	return key, nil
}
