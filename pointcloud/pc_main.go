package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/gekko3d/depthcloud"
	"github.com/gekko3d/depthcloud/pointcloud/pc/config"
	"github.com/gekko3d/depthcloud/pointcloud/pc/heic"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "YAML config file overlaid on the variant preset")
	variant := flag.String("variant", "", "preset: "+strings.Join(config.Presets(), ", "))
	debug := flag.Bool("debug", false, "Enable debug logging and profiler stats")
	width := flag.Int("width", 0, "window width (overrides config)")
	height := flag.Int("height", 0, "window height (overrides config)")
	image := flag.String("image", "", "color image or HEIF with embedded depth")
	depthPath := flag.String("depth", "", "separate 8-bit depth map for -image")
	watch := flag.Bool("watch", false, "reload -image and -depth when they change")
	shareDir := flag.String("share-dir", "", "directory for frames exported with P (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath, *variant)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *width > 0 {
		cfg.Window.Width = *width
	}
	if *height > 0 {
		cfg.Window.Height = *height
	}
	if *shareDir != "" {
		cfg.ShareDir = *shareDir
	}
	if cfg.ShareDir == "" {
		cfg.ShareDir = "."
	}

	app := depthcloud.NewAppBuilder().
		UseModule(
			depthcloud.LoggingModule{Prefix: "depthcloud", Debug: *debug},
			depthcloud.TimeModule{},
			depthcloud.NewPlatformWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title),
			depthcloud.InputModule{},
			depthcloud.OrbitCameraModule{Distance: cfg.Camera.Distance, Damping: cfg.Camera.Damping},
			depthcloud.PointCloudModule{Config: cfg, Debug: *debug},
			depthcloud.ImageSourceModule{
				ColorPath: *image,
				DepthPath: *depthPath,
				Watch:     *watch,
				Builder:   cfg.Builder(),
				HEIF:      heic.New(),
			},
			depthcloud.ShareModule{Dir: cfg.ShareDir},
		).
		Build()

	app.Run()
}
