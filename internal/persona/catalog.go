// Package persona holds the role, style and length prompts that shape a reply.
package persona

import (
	"fmt"
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultRolePrompt is used when the requested role is unknown.
const DefaultRolePrompt = "You are a chatbot that speaks naturally."

type Kind string

const (
	KindRole   Kind = "role"
	KindStyle  Kind = "style"
	KindLength Kind = "length"
)

// Catalog maps display names to prompt fragments.
type Catalog struct {
	Roles   map[string]string `yaml:"roles"`
	Styles  map[string]string `yaml:"styles"`
	Lengths map[string]string `yaml:"lengths"`
}

func Default() *Catalog {
	return &Catalog{
		Roles: map[string]string{
			"Teacher": "You are a teacher who explains things clearly.",
			"Friend":  "You are a friend who listens and supports the user.",
			"Advisor": "You are an advisor who offers practical guidance.",
			"Casual":  "You are a chatbot that speaks naturally.",
			"Mentor":  "You are a career mentor who gives advice.",
		},
		Styles: map[string]string{
			"Formal":    "Speak politely and use professional language.",
			"Friendly":  "Speak warmly and casually with emojis 😊.",
			"Sarcastic": "Use light sarcasm and humor 😏.",
			"Poetic":    "Respond creatively and use expressive language 🎭.",
		},
		Lengths: map[string]string{
			"Detailed": "Give a detailed answer with explanation of 5–6 lines.",
			"Short":    "Give a concise answer not more than 2 lines.",
		},
	}
}

// Load reads a YAML file whose entries are added to, or replace, the defaults.
// An empty path returns the defaults.
func Load(path string) (*Catalog, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read personas file")
	}
	var extra Catalog
	if err := yaml.Unmarshal(b, &extra); err != nil {
		return nil, errors.Wrapf(err, "parse personas file %s", path)
	}
	merge(c.Roles, extra.Roles)
	merge(c.Styles, extra.Styles)
	merge(c.Lengths, extra.Lengths)
	return c, nil
}

func merge(dst, src map[string]string) {
	for k, v := range src {
		dst[k] = v
	}
}

// SystemPrompt combines the three fragments, one per line. Unknown names fall back to
// DefaultRolePrompt for the role and to an empty line for style and length.
func (c *Catalog) SystemPrompt(role, style, length string) string {
	rolePrompt, ok := c.Roles[role]
	if !ok {
		rolePrompt = DefaultRolePrompt
	}
	return fmt.Sprintf("%s\n%s\n%s", rolePrompt, c.Styles[style], c.Lengths[length])
}

// Prompts returns a copy of one kind's name to prompt map.
func (c *Catalog) Prompts(k Kind) map[string]string {
	src := c.table(k)
	out := make(map[string]string, len(src))
	for name, p := range src {
		out[name] = p
	}
	return out
}

// Names lists one kind's names, sorted.
func (c *Catalog) Names(k Kind) []string {
	src := c.table(k)
	out := make([]string, 0, len(src))
	for name := range src {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) table(k Kind) map[string]string {
	switch k {
	case KindRole:
		return c.Roles
	case KindStyle:
		return c.Styles
	case KindLength:
		return c.Lengths
	}
	return nil
}
