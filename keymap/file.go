package keymap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/iottabyte/tidbit/indicator"
	"github.com/iottabyte/tidbit/keycode"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// File is the on-disk form of a keymap.
type File struct {
	Name         string      `json:"name" yaml:"name" toml:"name"`
	MaxLayer     *uint8      `json:"maxLayer,omitempty" yaml:"maxLayer,omitempty" toml:"maxLayer,omitempty"`
	DefaultColor string      `json:"defaultColor" yaml:"defaultColor" toml:"defaultColor"`
	Pages        int         `json:"pages,omitempty" yaml:"pages,omitempty" toml:"pages,omitempty"`
	Layers       []FileLayer `json:"layers" yaml:"layers" toml:"layers"`
}

// FileLayer is one layer of a File. Keys are keycode names, one slice per row.
type FileLayer struct {
	Name  string     `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Color string     `json:"color,omitempty" yaml:"color,omitempty" toml:"color,omitempty"`
	Keys  [][]string `json:"keys" yaml:"keys" toml:"keys"`
}

// Format is a keymap file encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	TOML Format = "toml"
)

// FormatFromPath picks the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	case ".toml":
		return TOML
	default:
		return JSON
	}
}

// Decode parses data in the given format into a validated Keymap on the
// Tidbit layout. A missing maxLayer defaults to the last layer. Unknown
// fields are rejected in every format.
func Decode(data []byte, f Format) (*Keymap, error) {
	var file File
	var err error
	switch f {
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err = dec.Decode(&file); errors.Is(err, io.EOF) {
			err = nil
		}
	case TOML:
		err = toml.NewDecoder(bytes.NewReader(data)).Strict(true).Decode(&file)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&file)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s keymap: %w", f, err)
	}
	return file.Keymap()
}

// Load reads and decodes a keymap file.
func Load(path string) (*Keymap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	km, err := Decode(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return km, nil
}

// Keymap converts the file form into a validated Keymap.
func (f *File) Keymap() (*Keymap, error) {
	km := &Keymap{
		Name:   f.Name,
		Layout: TidbitLayout,
		Colors: indicator.ColorMap{Layers: map[uint8]indicator.RGB{}},
		Pages:  f.Pages,
	}
	if km.Pages == 0 {
		km.Pages = 1
	}
	if f.DefaultColor != "" {
		c, err := indicator.ParseRGB(f.DefaultColor)
		if err != nil {
			return nil, fmt.Errorf("default color: %w", err)
		}
		km.Colors.Default = c
	}
	for i, fl := range f.Layers {
		l := make(Layer, len(fl.Keys))
		for r, row := range fl.Keys {
			l[r] = make([]keycode.Keycode, len(row))
			for c, name := range row {
				k, err := keycode.Parse(name, CustomKeycodes)
				if err != nil {
					return nil, fmt.Errorf("layer %d row %d col %d: %w", i, r, c, err)
				}
				l[r][c] = k
			}
		}
		km.Layers = append(km.Layers, l)
		km.LayerNames = append(km.LayerNames, fl.Name)
		if fl.Color != "" {
			c, err := indicator.ParseRGB(fl.Color)
			if err != nil {
				return nil, fmt.Errorf("layer %d color: %w", i, err)
			}
			km.Colors.Layers[uint8(i)] = c
		}
	}
	if f.MaxLayer != nil {
		km.MaxLayer = *f.MaxLayer
	} else if len(km.Layers) > 0 {
		km.MaxLayer = uint8(len(km.Layers) - 1)
	}
	if err := km.Validate(); err != nil {
		return nil, err
	}
	return km, nil
}

// ToFile converts k into its on-disk form.
func (k *Keymap) ToFile() *File {
	maxLayer := k.MaxLayer
	f := &File{
		Name:         k.Name,
		MaxLayer:     &maxLayer,
		DefaultColor: k.Colors.Default.String(),
		Pages:        k.Pages,
	}
	for i, l := range k.Layers {
		fl := FileLayer{Name: k.LayerName(uint8(i))}
		if c, ok := k.Colors.Layers[uint8(i)]; ok {
			fl.Color = c.String()
		}
		for _, row := range l {
			names := make([]string, len(row))
			for c, kc := range row {
				names[c] = KeyName(kc)
			}
			fl.Keys = append(fl.Keys, names)
		}
		f.Layers = append(f.Layers, fl)
	}
	return f
}

// Encode renders k in the given format.
func (k *Keymap) Encode(f Format) ([]byte, error) {
	file := k.ToFile()
	switch f {
	case YAML:
		return yaml.Marshal(file)
	case TOML:
		return toml.Marshal(*file)
	default:
		return json.MarshalIndent(file, "", "  ")
	}
}
