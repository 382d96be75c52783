package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

const platformTimestampLayout = "2006-01-02 15:04:05"

// Variant status values. Payloads without a status are treated as active.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Variant is the head of a configuration revision chain. It always reflects
// the latest revision.
type Variant struct {
	ID           string
	Name         string
	AppID        string
	Revision     int
	Parameters   map[string]any
	Description  string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ModifiedByID string
	URI          string
	DeployedIn   []string
}

// HasMultipleRevisions reports whether the variant has been revised at least once.
func (v Variant) HasMultipleRevisions() bool {
	return v.Revision > 1
}

// Revision is an immutable configuration snapshot owned by one variant.
type Revision struct {
	ID            string
	VariantID     string
	Revision      int
	Parameters    map[string]any
	CommitMessage string
	Author        string
	CreatedAt     time.Time
}

// IsLatest reports whether r is the revision v currently points at.
func (r Revision) IsLatest(v Variant) bool {
	return r.VariantID == v.ID && r.Revision == v.Revision
}

// RevisionID is the id given to a revision whose payload carries none.
func RevisionID(variantID string, revision int) string {
	return fmt.Sprintf("%s@%d", variantID, revision)
}

// ParseRevisionID splits an id built by RevisionID. Server-issued ids do
// not parse.
func ParseRevisionID(id string) (variantID string, revision int, ok bool) {
	i := strings.LastIndex(id, "@")
	if i <= 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil || n < 0 {
		return "", 0, false
	}
	return id[:i], n, true
}

// Environment describes a deployment target and what is deployed to it.
type Environment struct {
	Name               string
	DeployedVariantID  string
	DeployedRevisionID string
	DeployedRevision   int
}

// VariantPage is one page of the variant list endpoint.
type VariantPage struct {
	Variants []Variant
	Total    int
	HasMore  bool
}

// RevisionPage is one page of the revision list endpoint.
type RevisionPage struct {
	Revisions []Revision
	Total     int
	HasMore   bool
}

// decodeVariant normalises one variant payload. Both snake_case and
// camelCase keys are accepted, and numbers may arrive as strings.
func decodeVariant(raw map[string]any) (Variant, error) {
	id := cast.ToString(lookup(raw, "variant_id", "variantId", "id"))
	if id == "" {
		return Variant{}, fmt.Errorf("variant payload missing variant_id")
	}
	status := strings.ToLower(strings.TrimSpace(cast.ToString(lookup(raw, "status"))))
	if status == "" {
		status = StatusActive
	}
	description := cast.ToString(lookup(raw, "description"))
	if description == "" {
		description = cast.ToString(lookup(raw, "commit_message", "commitMessage"))
	}
	return Variant{
		ID:           id,
		Name:         cast.ToString(lookup(raw, "variant_name", "variantName", "name")),
		AppID:        cast.ToString(lookup(raw, "app_id", "appId")),
		Revision:     cast.ToInt(lookup(raw, "revision")),
		Parameters:   toParameters(lookup(raw, "parameters", "config")),
		Description:  description,
		Status:       status,
		CreatedAt:    parseTime(cast.ToString(lookup(raw, "created_at", "createdAt"))),
		UpdatedAt:    parseTime(cast.ToString(lookup(raw, "updated_at", "updatedAt"))),
		ModifiedByID: cast.ToString(lookup(raw, "modified_by_id", "modifiedById")),
		URI:          cast.ToString(lookup(raw, "uri")),
	}, nil
}

func decodeRevision(raw map[string]any, variantID string) (Revision, error) {
	rev := Revision{
		ID:            cast.ToString(lookup(raw, "id", "revision_id", "revisionId")),
		VariantID:     cast.ToString(lookup(raw, "variant_id", "variantId")),
		Revision:      cast.ToInt(lookup(raw, "revision")),
		Parameters:    toParameters(lookup(raw, "parameters", "config")),
		CommitMessage: cast.ToString(lookup(raw, "commit_message", "commitMessage")),
		Author:        cast.ToString(lookup(raw, "modified_by", "modifiedBy", "author")),
		CreatedAt:     parseTime(cast.ToString(lookup(raw, "created_at", "createdAt"))),
	}
	if rev.VariantID == "" {
		rev.VariantID = variantID
	}
	if rev.ID == "" {
		if rev.VariantID == "" {
			return Revision{}, fmt.Errorf("revision payload missing id")
		}
		rev.ID = RevisionID(rev.VariantID, rev.Revision)
	}
	return rev, nil
}

func decodeEnvironment(raw map[string]any) Environment {
	return Environment{
		Name:               cast.ToString(lookup(raw, "name")),
		DeployedVariantID:  cast.ToString(lookup(raw, "deployed_app_variant_id", "deployedAppVariantId")),
		DeployedRevisionID: cast.ToString(lookup(raw, "deployed_app_variant_revision_id", "deployedAppVariantRevisionId")),
		DeployedRevision:   cast.ToInt(lookup(raw, "revision", "deployed_variant_revision")),
	}
}

// lookup returns the first present, non-nil value among keys.
func lookup(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func toParameters(value any) map[string]any {
	switch v := value.(type) {
	case nil:
		return nil
	case map[string]any:
		// nested {"config": {"parameters": {...}}} shape
		if inner, ok := v["parameters"].(map[string]any); ok && len(v) == 1 {
			return inner
		}
		return v
	case string:
		var out map[string]any
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil
		}
		return out
	default:
		return cast.ToStringMap(v)
	}
}

// listEnvelope covers the wrapped list shapes the platform has used.
type listEnvelope struct {
	Variants  []map[string]any `json:"variants"`
	Revisions []map[string]any `json:"revisions"`
	Items     []map[string]any `json:"items"`
	Total     *int             `json:"total"`
	Count     *int             `json:"count"`
	HasMore   *bool            `json:"has_more"`
}

func (e listEnvelope) records() []map[string]any {
	switch {
	case e.Variants != nil:
		return e.Variants
	case e.Revisions != nil:
		return e.Revisions
	default:
		return e.Items
	}
}

// decodeList accepts a bare JSON array or an envelope object and reports the
// records along with total/hasMore when the server sent them.
func decodeList(body []byte) (records []map[string]any, total *int, hasMore *bool, err error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(body, &records); err != nil {
			return nil, nil, nil, fmt.Errorf("decode response: %w", err)
		}
		return records, nil, nil, nil
	}
	var env listEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, nil, nil, fmt.Errorf("decode response: %w", err)
	}
	total = env.Total
	if total == nil {
		total = env.Count
	}
	return env.records(), total, env.HasMore, nil
}

// pageBounds derives total/hasMore for one page. When the server reports
// a total, hasMore follows offset+limit < total; otherwise a full page is
// taken to mean more may follow.
func pageBounds(offset, limit, got int, total *int, hasMore *bool) (int, bool) {
	t := offset + got
	if total != nil {
		t = *total
	}
	if hasMore != nil {
		return t, *hasMore
	}
	if limit <= 0 {
		return t, false
	}
	if total != nil {
		return t, offset+limit < t
	}
	return t, got >= limit
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(platformTimestampLayout, value, time.UTC); err == nil {
		return t
	}
	return time.Time{}
}
