// Package manifest loads graph definitions from TOML files.
//
// A manifest declares nodes as [[node]] tables. Leaves carry a value;
// derived nodes carry an expr in HCL native syntax whose referenced names
// become dependencies automatically. An optional [[step]] list scripts a
// sequence of updates, and [options] tunes the engine:
//
//	[options]
//	leaf_only_updates = true
//
//	[[node]]
//	name  = "a"
//	value = 1.0
//
//	[[node]]
//	name  = "d"
//	value = 64.0
//	expr  = "a * b"
//
//	[[step]]
//	node  = "a"
//	value = 2.0
package manifest

import (
	"io"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/recalc/pkg/engine"
	errs "github.com/matzehuels/recalc/pkg/errors"
)

// File is a decoded manifest.
type File struct {
	Settings Settings `toml:"options"`
	Nodes    []Node   `toml:"node"`
	Steps    []Step   `toml:"step"`

	// Path is where the manifest was loaded from, empty for readers.
	Path string `toml:"-"`
}

// Settings maps to engine options.
type Settings struct {
	LeafOnlyUpdates bool `toml:"leaf_only_updates"`
}

// Node declares one graph node.
type Node struct {
	Name      string   `toml:"name"`
	Value     float64  `toml:"value"`
	Expr      string   `toml:"expr"`
	DependsOn []string `toml:"depends_on"`
}

// Step is one scripted update.
type Step struct {
	Node  string  `toml:"node"`
	Value float64 `toml:"value"`
}

// Load reads and decodes the manifest at path.
func Load(path string) (*File, error) {
	if err := errs.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errs.New(errs.ErrCodeFileNotFound, "manifest %s does not exist", path)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "open manifest")
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, err
	}
	m.Path = path
	return m, nil
}

// Parse decodes a manifest. Keys the format does not know are rejected so
// typos such as "depends" fail loudly.
func Parse(r io.Reader) (*File, error) {
	var m File
	md, err := toml.NewDecoder(r).Decode(&m)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidManifest, err, "decode TOML")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errs.New(errs.ErrCodeInvalidManifest, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if len(m.Nodes) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidManifest, "manifest declares no nodes")
	}
	return &m, nil
}

// Specs converts the declared nodes into engine specs, in declaration order.
// A node's dependencies are its depends_on list followed by every other
// name its expression reads.
func (m *File) Specs() ([]engine.NodeSpec, error) {
	specs := make([]engine.NodeSpec, 0, len(m.Nodes))
	for _, n := range m.Nodes {
		spec := engine.NodeSpec{
			Name:      n.Name,
			Value:     n.Value,
			DependsOn: slices.Clone(n.DependsOn),
		}
		if n.Expr != "" {
			expr, err := ParseExpression(n.Expr, m.label(n.Name))
			if err != nil {
				return nil, errs.Wrap(errs.ErrCodeInvalidManifest, err, "node %q", n.Name)
			}
			refs := expr.References()
			if len(refs) == 0 && len(spec.DependsOn) == 0 {
				return nil, errs.New(errs.ErrCodeInvalidManifest,
					"node %q: expression %q reads no nodes; use value instead", n.Name, n.Expr)
			}
			for _, ref := range refs {
				if !slices.Contains(spec.DependsOn, ref) {
					spec.DependsOn = append(spec.DependsOn, ref)
				}
			}
			spec.Compute = expr.Compute()
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (m *File) label(node string) string {
	if m.Path == "" {
		return node
	}
	return m.Path + ":" + node
}

// Options returns the engine options the manifest asks for.
func (m *File) Options() []engine.Option {
	var opts []engine.Option
	if m.Settings.LeafOnlyUpdates {
		opts = append(opts, engine.WithLeafOnlyUpdates())
	}
	return opts
}

// Build compiles the manifest into a graph. extra options are applied after
// the manifest's own.
func (m *File) Build(extra ...engine.Option) (*engine.Graph, error) {
	specs, err := m.Specs()
	if err != nil {
		return nil, err
	}
	return engine.NewBuilder(append(m.Options(), extra...)...).Add(specs...).Build()
}
