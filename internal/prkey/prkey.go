// Package prkey maps pull request identities and legacy storage keys onto canonical keys.
//
// A canonical key is "pr-<number>". It deliberately ignores workspace and repository,
// so pull request #7 of two different repositories shares one key. Stats live under
// the bare key and records under "pr-info-" + key.
package prkey

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	// Prefix starts every canonical key.
	Prefix = "pr-"
	// InfoPrefix starts every record key.
	InfoPrefix = "pr-info-"
	// CacheKey holds the popup cold-start cache.
	CacheKey = "pr_data_cache"
)

// Sentinels written by older versions when extraction failed.
const (
	UnknownProject = "unknown-project"
	UnknownRepo    = "unknown-repo"
	Unknown        = "Unknown"
)

var (
	trailingDigits = regexp.MustCompile(`\d+$`)
	slashDigits    = regexp.MustCompile(`/(\d+)`)
	pullRequestURL = regexp.MustCompile(`/pull-requests/(\d+)`)
	allDigits      = regexp.MustCompile(`^\d+$`)
)

// Key is a canonical storage key of the form "pr-<number>".
type Key string

// String returns the key as stored.
func (k Key) String() string {
	return string(k)
}

// InfoKey returns the record key paired with k.
func (k Key) InfoKey() string {
	return DeriveInfoKey(k)
}

// Number returns the pull request number encoded in k.
func (k Key) Number() string {
	return strings.TrimPrefix(string(k), Prefix)
}

// Identity is anything that names a pull request number.
type Identity interface {
	PullRequestID() string
}

// FromIdentity returns the canonical key of id. Workspace and repository play no part.
func FromIdentity(id Identity) Key {
	return Resolve(id.PullRequestID())
}

// Resolve returns the canonical key for a pull request number.
func Resolve(number string) Key {
	return Key(Prefix + number)
}

// ResolveFromLegacyKey derives a canonical key from any previously used storage key.
// A trailing run of digits wins; otherwise digits following a "/" are used.
func ResolveFromLegacyKey(raw string) (Key, bool) {
	if m := trailingDigits.FindString(raw); m != "" {
		return Resolve(m), true
	}
	if m := slashDigits.FindStringSubmatch(raw); m != nil {
		return Resolve(m[1]), true
	}
	return "", false
}

// DeriveInfoKey returns the record key for a canonical key.
func DeriveInfoKey(k Key) string {
	return InfoPrefix + string(k)
}

// IsInfoKey reports whether raw is a record key.
func IsInfoKey(raw string) bool {
	return strings.HasPrefix(raw, InfoPrefix)
}

// StatsKeyFromInfoKey strips the record prefix. The result is only canonical
// when the info key itself was.
func StatsKeyFromInfoKey(infoKey string) string {
	return strings.TrimPrefix(infoKey, InfoPrefix)
}

// FromURL returns the canonical key of a pull request page URL.
func FromURL(rawURL string) (Key, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	m := pullRequestURL.FindStringSubmatch(u.Path)
	if m == nil {
		return "", ErrNoPullRequestNumber
	}
	return Resolve(m[1]), nil
}

// Validate checks that raw is a canonical key.
func Validate(raw string) (Key, error) {
	if !strings.HasPrefix(raw, Prefix) || !allDigits.MatchString(strings.TrimPrefix(raw, Prefix)) {
		return "", ErrInvalidKey
	}
	return Key(raw), nil
}

// InternalID returns the lowercase workspace/repository/number composite kept for debugging.
func InternalID(workspace, repository, number string) string {
	return strings.ToLower(workspace + "/" + repository + "/" + number)
}

// IsUnknownProject reports whether project is one of the extraction-failure sentinels.
func IsUnknownProject(project string) bool {
	return project == Unknown || project == UnknownProject
}

// IsUnknownRepo reports whether repo is one of the extraction-failure sentinels.
func IsUnknownRepo(repo string) bool {
	return repo == Unknown || repo == UnknownRepo
}
