package skeleton

import (
	"strings"

	"github.com/google/uuid"
)

// IDPrefix starts every placeholder id. Real ids never carry it.
const IDPrefix = "skeleton-"

// DeploymentSlot is one entry of a placeholder's deployment list.
type DeploymentSlot struct {
	Name       string
	IsSkeleton bool
}

// Placeholder stands in for a variant row while its page is loading. It is
// its own type so it cannot be passed where real data is expected.
type Placeholder struct {
	ID          string
	IsSkeleton  bool
	Priority    bool
	Fields      map[string]string
	Deployments []DeploymentSlot
}

// Field returns the generated value of name, or "" when none was generated.
func (p Placeholder) Field(name string) string {
	return p.Fields[name]
}

// FieldGenerator produces the value of one field for placeholder i.
type FieldGenerator func(i int) string

// Options controls Synthesize.
type Options struct {
	Count int
	// Priority marks the first Priority placeholders as standing in for
	// deep-linked entities.
	Priority        int
	FieldGenerators map[string]FieldGenerator
	// Environments seeds the nested deployment list. Even slots look
	// resolved; odd slots are marked as still loading.
	Environments []string
}

// DefaultFields shape placeholders like variant table rows.
var DefaultFields = map[string]FieldGenerator{
	"name":        func(i int) string { return strings.Repeat("▒", 8+i%3*4) },
	"revision":    func(int) string { return "v…" },
	"updated_at":  func(int) string { return "…" },
	"modified_by": func(i int) string { return strings.Repeat("▒", 6+i%2*3) },
}

// Synthesize returns opts.Count placeholders.
func Synthesize(opts Options) []Placeholder {
	if opts.Count <= 0 {
		return nil
	}
	generators := opts.FieldGenerators
	if generators == nil {
		generators = DefaultFields
	}
	out := make([]Placeholder, opts.Count)
	for i := range out {
		p := Placeholder{
			ID:         IDPrefix + uuid.NewString(),
			IsSkeleton: true,
			Priority:   i < opts.Priority,
			Fields:     make(map[string]string, len(generators)),
		}
		for name, gen := range generators {
			p.Fields[name] = gen(i)
		}
		if len(opts.Environments) > 0 {
			p.Deployments = make([]DeploymentSlot, len(opts.Environments))
			for j, env := range opts.Environments {
				p.Deployments[j] = DeploymentSlot{Name: env, IsSkeleton: (i+j)%2 == 1}
			}
		}
		out[i] = p
	}
	return out
}

// IsSkeletonID reports whether id was produced by Synthesize.
func IsSkeletonID(id string) bool {
	return strings.HasPrefix(id, IDPrefix)
}
