package field

import (
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// ErrUnknownCrop is returned when a crop is not in the catalogue.
var ErrUnknownCrop = eris.New("field: unknown crop")

// Catalogue is the set of crops fields may be assigned. A nil Catalogue
// accepts any crop.
type Catalogue struct {
	byKey map[string]string // folded name -> display name
}

type cropFile struct {
	Crops []string `yaml:"crops"`
}

// LoadCrops reads a YAML crop catalogue:
//
//	crops:
//	  - Corn
//	  - Soybeans
func LoadCrops(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "field: read crops %s", path)
	}
	return ParseCrops(data)
}

// ParseCrops parses a YAML crop catalogue.
func ParseCrops(data []byte) (*Catalogue, error) {
	var f cropFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "field: parse crops")
	}
	if len(f.Crops) == 0 {
		return nil, eris.New("field: crop catalogue is empty")
	}

	c := &Catalogue{byKey: make(map[string]string, len(f.Crops))}
	for _, name := range f.Crops {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		c.byKey[foldKey(name)] = name
	}
	return c, nil
}

// Normalize returns the catalogue spelling of name. Without a catalogue it
// title-cases free text. An empty name clears the crop.
func (c *Catalogue) Normalize(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "", nil
	}
	if c == nil {
		return cases.Title(language.English).String(name), nil
	}
	if display, ok := c.byKey[foldKey(name)]; ok {
		return display, nil
	}
	return "", eris.Wrapf(ErrUnknownCrop, "field: crop %q is not in the catalogue", name)
}

// Names returns the catalogue's crops sorted alphabetically.
func (c *Catalogue) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.byKey))
	for _, v := range c.byKey {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func foldKey(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}
