package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/gekko3d/depthcloud/pointcloud/pc/core"
	"github.com/gekko3d/depthcloud/pointcloud/pc/depth"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

type Window struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

type Particles struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type Depth struct {
	Scale        float32 `yaml:"scale"`
	ZMapping     string  `yaml:"z_mapping"`
	MaxParticles int     `yaml:"max_particles"`
}

type Camera struct {
	Distance float32 `yaml:"distance"`
	Damping  float32 `yaml:"damping"`
}

// Config describes one demo variant. Files only need the fields they
// change; everything else comes from the preset named by Variant.
type Config struct {
	Variant   string        `yaml:"variant"`
	Window    Window        `yaml:"window"`
	Particles Particles     `yaml:"particles"`
	Motion    string        `yaml:"motion"`
	Photo     bool          `yaml:"photo"`
	PointSize float32       `yaml:"point_size"`
	Alpha     float32       `yaml:"alpha"`
	Radius    float32       `yaml:"radius"`
	Amplitude float32       `yaml:"amplitude"`
	Settle    time.Duration `yaml:"settle"`
	Depth     Depth         `yaml:"depth"`
	Camera    Camera        `yaml:"camera"`
	ShareDir  string        `yaml:"share_dir"`
}

const DefaultVariant = "wave"

func base() Config {
	return Config{
		Window:    Window{Title: "depthcloud", Width: 1280, Height: 720},
		Particles: Particles{Width: 256, Height: 256},
		Motion:    "passthrough",
		PointSize: 2,
		Alpha:     0.4,
		Radius:    1,
		Settle:    5 * time.Second,
		Depth:     Depth{Scale: 10, ZMapping: "linear", MaxParticles: 1 << 20},
		Camera:    Camera{Distance: 3, Damping: 0.25},
	}
}

var presets = map[string]func(c *Config){
	"sphere": func(c *Config) {},
	"wave": func(c *Config) {
		c.Motion = "wave"
		c.Amplitude = 0.15
	},
	"settle": func(c *Config) {
		c.Motion = "settle"
		c.Amplitude = 1.5
	},
	"photo": func(c *Config) {
		c.Photo = true
		c.Depth.Scale = 10
		c.Camera.Distance = 12
	},
	"photo-log": func(c *Config) {
		c.Photo = true
		c.Motion = "settle"
		c.Amplitude = 2
		c.Depth.Scale = 20
		c.Depth.ZMapping = "log2"
		c.Camera.Distance = 24
	},
}

func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Preset(name string) (Config, error) {
	if name == "" {
		name = DefaultVariant
	}
	apply, ok := presets[name]
	if !ok {
		return Config{}, fmt.Errorf("config: unknown variant %q (have %v): %w", name, Presets(), ErrInvalid)
	}
	c := base()
	c.Variant = name
	apply(&c)
	return c, nil
}

// Parse reads a YAML document and lays it over its variant's preset.
// variant overrides the file's own variant when set.
func Parse(data []byte, variant string) (Config, error) {
	var head struct {
		Variant string `yaml:"variant"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	if variant == "" {
		variant = head.Variant
	}
	c, err := Preset(variant)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	c.Variant = variant
	if c.Variant == "" {
		c.Variant = DefaultVariant
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads path, or returns the variant preset when path is empty.
func Load(path, variant string) (Config, error) {
	if path == "" {
		c, err := Preset(variant)
		if err != nil {
			return Config{}, err
		}
		return c, c.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, variant)
}

func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("config: "+format+": %w", append(args, ErrInvalid)...)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return invalid("window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Particles.Width <= 0 || c.Particles.Height <= 0 {
		return invalid("particle grid %dx%d", c.Particles.Width, c.Particles.Height)
	}
	if _, err := c.MotionKind(); err != nil {
		return invalid("%v", err)
	}
	if _, err := c.ZMapping(); err != nil {
		return invalid("%v", err)
	}
	if c.PointSize <= 0 {
		return invalid("point_size %v", c.PointSize)
	}
	if c.Alpha < 0 || c.Alpha > 1 {
		return invalid("alpha %v", c.Alpha)
	}
	if c.Settle < 0 {
		return invalid("settle %v", c.Settle)
	}
	if c.Depth.MaxParticles < 0 {
		return invalid("depth.max_particles %d", c.Depth.MaxParticles)
	}
	if c.Camera.Distance <= 0 {
		return invalid("camera.distance %v", c.Camera.Distance)
	}
	if c.Camera.Damping <= 0 || c.Camera.Damping > 1 {
		return invalid("camera.damping %v", c.Camera.Damping)
	}
	return nil
}

func (c Config) MotionKind() (core.Motion, error) {
	return core.ParseMotion(c.Motion)
}

func (c Config) ZMapping() (depth.ZMapping, error) {
	return depth.ParseZMapping(c.Depth.ZMapping)
}

// Builder returns the depth-to-position builder for this variant.
func (c Config) Builder() depth.Builder {
	z, _ := c.ZMapping()
	return depth.Builder{Scale: c.Depth.Scale, Z: z, MaxParticles: c.Depth.MaxParticles}
}
