package compiler

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/omniroute/workflow-compiler/pkg/models"
)

// IdentifierResolver maps user-supplied node labels to unique, exported Go
// identifiers. Uniqueness is scoped to one compile run; the resolver holds
// no other state.
type IdentifierResolver struct {
	used map[string]struct{}
}

// NewIdentifierResolver creates an empty per-run resolver.
func NewIdentifierResolver() *IdentifierResolver {
	return &IdentifierResolver{used: make(map[string]struct{})}
}

// variant-derived fallbacks for labels that sanitize to nothing.
var fallbackNames = map[models.NodeType]string{
	models.NodeTypeActivity:      "UnnamedActivity",
	models.NodeTypeHTTPCall:      "UnnamedHTTPCall",
	models.NodeTypeDatabaseQuery: "UnnamedQuery",
	models.NodeTypeTransform:     "UnnamedTransform",
	models.NodeTypeNotification:  "UnnamedNotification",
	models.NodeTypeSubWorkflow:   "UnnamedSubWorkflow",
	models.NodeTypeWaitSignal:    "UnnamedSignal",
	models.NodeTypeWaitTimer:     "UnnamedTimer",
}

// Resolve converts label into a target-safe identifier, unique within this
// run. Colliding labels get a numeric suffix: Foo, Foo2, Foo3, ...
func (r *IdentifierResolver) Resolve(label string, nodeType models.NodeType) string {
	base := PascalCase(label)
	if base == "" {
		base = fallbackNames[nodeType]
		if base == "" {
			base = "UnnamedStep"
		}
	}

	// Activity-class identifiers carry an Activity suffix so generated
	// stubs read naturally next to hand-written Temporal activities.
	switch nodeType {
	case models.NodeTypeActivity, models.NodeTypeHTTPCall,
		models.NodeTypeDatabaseQuery, models.NodeTypeTransform,
		models.NodeTypeNotification:
		if !strings.HasSuffix(base, "Activity") {
			base += "Activity"
		}
	default:
	}

	name := base
	for n := 2; ; n++ {
		if _, taken := r.used[name]; !taken {
			break
		}

		name = base + strconv.Itoa(n)
	}

	r.used[name] = struct{}{}

	return name
}

// PascalCase collapses label into an exported identifier: split on
// non-alphanumeric separators, capitalize each word, drop anything that is
// not a letter or digit, and trim leading digits so the result starts with
// a letter.
func PascalCase(label string) string {
	var b strings.Builder

	capitalize := true

	for _, r := range label {
		switch {
		case unicode.IsLetter(r):
			if capitalize {
				b.WriteRune(unicode.ToUpper(r))

				capitalize = false
			} else {
				b.WriteRune(r)
			}
		case unicode.IsDigit(r):
			if b.Len() > 0 {
				b.WriteRune(r)
			}

			capitalize = true
		default:
			capitalize = true
		}
	}

	return b.String()
}

// SnakeCase lowers label into a package-safe name: words joined by
// underscores, non-alphanumerics dropped.
func SnakeCase(label string) string {
	var words []string

	var cur strings.Builder

	for _, r := range label {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(unicode.ToLower(r))
		} else if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}

	if cur.Len() > 0 {
		words = append(words, cur.String())
	}

	return strings.Join(words, "_")
}
