package variants

import (
	"sort"
	"strconv"
	"strings"

	"github.com/five82/varlens/internal/querycache"
)

// Root segments of the cache keys this package writes.
const (
	KeyVariants     = "variants"
	KeyVariant      = "variant"
	KeyRevisions    = "revisions"
	KeyRevision     = "revision"
	KeyEnvironments = "environments"
)

// Mode selects the regular fetch a list query performs.
type Mode string

const (
	// ModeList fetches the first page at the default page size.
	ModeList Mode = "list"
	// ModeWindowed fetches the page at the window's offset and limit.
	ModeWindowed Mode = "windowed"
	// ModeEnhanced fetches the unpaged list joined with deployments.
	ModeEnhanced Mode = "enhanced"
)

// ParseMode validates a mode name. The empty string selects ModeWindowed.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeWindowed:
		return ModeWindowed, true
	case ModeList:
		return ModeList, true
	case ModeEnhanced:
		return ModeEnhanced, true
	default:
		return "", false
	}
}

// ListKey is the cache key of one variant list query. Two queries share a
// key only when app, mode, page, search and the priority set all match.
func ListKey(appID string, mode Mode, offset, limit int, search string, priority []string) querycache.Key {
	sorted := append([]string(nil), priority...)
	sort.Strings(sorted)
	return querycache.NewKey(
		KeyVariants,
		appID,
		string(mode),
		strconv.Itoa(offset),
		strconv.Itoa(limit),
		search,
		"p:"+strings.Join(sorted, ","),
	)
}

// VariantKey is the key of a single variant.
func VariantKey(id string) querycache.Key {
	return querycache.NewKey(KeyVariant, id)
}

// RevisionsKey is the key of a variant's full revision history.
func RevisionsKey(variantID string) querycache.Key {
	return querycache.NewKey(KeyRevisions, variantID)
}

// RevisionNumberKey is the key of one revision addressed by number.
func RevisionNumberKey(variantID string, revision int) querycache.Key {
	return querycache.NewKey(KeyRevision, variantID, strconv.Itoa(revision))
}

// RevisionKey is the key of one revision addressed by id.
func RevisionKey(id string) querycache.Key {
	return querycache.NewKey(KeyRevision, id)
}

// EnvironmentsKey is the key of an app's deployment environments.
func EnvironmentsKey(appID string) querycache.Key {
	return querycache.NewKey(KeyEnvironments, appID)
}

// WindowKey names the pagination window of a list view.
func WindowKey(appID string, mode Mode) string {
	return KeyVariants + "/" + appID + "/" + string(mode)
}
