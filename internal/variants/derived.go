package variants

import (
	"sort"
	"strings"
	"time"

	"github.com/five82/varlens/internal/api"
	"github.com/five82/varlens/internal/deeplink"
	"github.com/five82/varlens/internal/querycache"
	"github.com/five82/varlens/internal/skeleton"
)

// VariantRow is the table projection of a variant. It carries no parameter
// payload.
type VariantRow struct {
	ID         string
	Name       string
	Revision   int
	UpdatedAt  time.Time
	ModifiedBy string
	Status     string
	DeployedIn []string
	Priority   bool
	Selected   bool
}

// Row is one table line: either a real variant or a loading placeholder,
// never both.
type Row struct {
	variant     *VariantRow
	placeholder *skeleton.Placeholder
}

// RealRow wraps a variant row.
func RealRow(v VariantRow) Row { return Row{variant: &v} }

// SkeletonRow wraps a placeholder.
func SkeletonRow(p skeleton.Placeholder) Row { return Row{placeholder: &p} }

// Variant returns the real row, if this is one.
func (r Row) Variant() (VariantRow, bool) {
	if r.variant == nil {
		return VariantRow{}, false
	}
	return *r.variant, true
}

// Placeholder returns the placeholder, if this is one.
func (r Row) Placeholder() (skeleton.Placeholder, bool) {
	if r.placeholder == nil {
		return skeleton.Placeholder{}, false
	}
	return *r.placeholder, true
}

// IsSkeleton reports whether the row is a placeholder.
func (r Row) IsSkeleton() bool { return r.placeholder != nil }

// ID returns the variant or placeholder id.
func (r Row) ID() string {
	if r.variant != nil {
		return r.variant.ID
	}
	if r.placeholder != nil {
		return r.placeholder.ID
	}
	return ""
}

// ToRow projects v.
func ToRow(v api.Variant, priority, selected bool) VariantRow {
	return VariantRow{
		ID:         v.ID,
		Name:       v.Name,
		Revision:   v.Revision,
		UpdatedAt:  v.UpdatedAt,
		ModifiedBy: v.ModifiedByID,
		Status:     v.Status,
		DeployedIn: append([]string(nil), v.DeployedIn...),
		Priority:   priority,
		Selected:   selected,
	}
}

// Filter narrows the loaded list. Every set field must match.
type Filter struct {
	// Search is a case-insensitive substring of name, description or id.
	Search string
	// Status matches api.StatusActive or api.StatusArchived when set.
	Status            string
	HasDeployment     *bool
	MultipleRevisions *bool
}

// IsZero reports whether the filter passes everything.
func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Search) == "" && f.Status == "" && f.HasDeployment == nil && f.MultipleRevisions == nil
}

// Apply returns the variants that pass every predicate of f.
func (f Filter) Apply(vs []api.Variant) []api.Variant {
	out := vs
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		out = keep(out, func(v api.Variant) bool {
			return strings.Contains(strings.ToLower(v.Name), q) ||
				strings.Contains(strings.ToLower(v.Description), q) ||
				strings.Contains(strings.ToLower(v.ID), q)
		})
	}
	if f.Status != "" {
		out = keep(out, func(v api.Variant) bool { return strings.EqualFold(v.Status, f.Status) })
	}
	if f.HasDeployment != nil {
		want := *f.HasDeployment
		out = keep(out, func(v api.Variant) bool { return (len(v.DeployedIn) > 0) == want })
	}
	if f.MultipleRevisions != nil {
		want := *f.MultipleRevisions
		out = keep(out, func(v api.Variant) bool { return v.HasMultipleRevisions() == want })
	}
	return out
}

func keep(vs []api.Variant, pred func(api.Variant) bool) []api.Variant {
	out := make([]api.Variant, 0, len(vs))
	for _, v := range vs {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out
}

// Stats are counts over the loaded variants only, not server aggregates.
type Stats struct {
	Total    int
	Active   int
	Archived int
	Deployed int
}

// ComputeStats counts vs in one pass.
func ComputeStats(vs []api.Variant) Stats {
	var s Stats
	for _, v := range vs {
		s.Total++
		switch v.Status {
		case api.StatusArchived:
			s.Archived++
		default:
			s.Active++
		}
		if len(v.DeployedIn) > 0 {
			s.Deployed++
		}
	}
	return s
}

// JoinDeployments fills DeployedIn from envs. Environment names are listed
// in name order.
func JoinDeployments(vs []api.Variant, envs []api.Environment) []api.Variant {
	if len(envs) == 0 {
		return vs
	}
	byVariant := make(map[string][]string)
	for _, env := range envs {
		if env.DeployedVariantID != "" {
			byVariant[env.DeployedVariantID] = append(byVariant[env.DeployedVariantID], env.Name)
		}
	}
	out := make([]api.Variant, len(vs))
	for i, v := range vs {
		if names := byVariant[v.ID]; len(names) > 0 {
			names = append([]string(nil), names...)
			sort.Strings(names)
			v.DeployedIn = names
		}
		out[i] = v
	}
	return out
}

// EnvironmentNames lists envs by name.
func EnvironmentNames(envs []api.Environment) []string {
	names := make([]string, 0, len(envs))
	for _, env := range envs {
		names = append(names, env.Name)
	}
	return names
}

// ConcatPages joins page results in order, keeping the first occurrence of
// each id. Totals come from the last page. A failed page fails the whole
// result; a loading first page leaves the result loading, and a loading
// later page ends the concatenation.
func ConcatPages(pages []querycache.Result[VariantList]) querycache.Result[VariantList] {
	if len(pages) == 0 {
		return querycache.Loading[VariantList]()
	}
	var (
		out        VariantList
		seen       = make(map[string]struct{})
		refreshing bool
	)
	for i, page := range pages {
		switch page.State {
		case querycache.StateFailed:
			return querycache.Failed[VariantList](page.Err)
		case querycache.StateLoading:
			if i == 0 {
				return querycache.Loading[VariantList]()
			}
			res := querycache.Ready(out)
			res.Refreshing = refreshing
			return res
		}
		refreshing = refreshing || page.Refreshing
		for j, v := range page.Value.Variants {
			if _, dup := seen[v.ID]; dup {
				continue
			}
			seen[v.ID] = struct{}{}
			out.Variants = append(out.Variants, v)
			if i == 0 && j < page.Value.PriorityCount {
				out.PriorityCount++
			}
		}
		out.Total = page.Value.Total
		out.HasMore = page.Value.HasMore
	}
	res := querycache.Ready(out)
	res.Refreshing = refreshing
	return res
}

// BuildRows projects the loaded list into table rows. While the list is
// still loading the rows are placeholders; while a further page is in
// flight placeholders follow the real rows.
func BuildRows(loaded querycache.Result[VariantList], f Filter, link deeplink.Context, selected map[string]bool, pending int, placeholders skeleton.Options) querycache.Result[[]Row] {
	switch loaded.State {
	case querycache.StateFailed:
		return querycache.Failed[[]Row](loaded.Err)
	case querycache.StateLoading:
		res := querycache.Loading[[]Row]()
		for _, p := range skeleton.Synthesize(placeholders) {
			res.Value = append(res.Value, SkeletonRow(p))
		}
		return res
	}
	// Variants pulled in through a revision link lead the list without
	// being named by the link itself.
	leading := make(map[string]bool, loaded.Value.PriorityCount)
	for _, v := range loaded.Value.Variants[:min(loaded.Value.PriorityCount, len(loaded.Value.Variants))] {
		leading[v.ID] = true
	}
	visible := f.Apply(loaded.Value.Variants)
	rows := make([]Row, 0, len(visible)+pending)
	for _, v := range visible {
		rows = append(rows, RealRow(ToRow(v, leading[v.ID] || link.Has(v.ID), selected[v.ID])))
	}
	if pending > 0 {
		more := placeholders
		more.Count = pending
		more.Priority = 0
		for _, p := range skeleton.Synthesize(more) {
			rows = append(rows, SkeletonRow(p))
		}
	}
	res := querycache.Ready(rows)
	res.Refreshing = loaded.Refreshing
	return res
}
