package shaders

import (
	_ "embed"
)

//go:embed simulate.wgsl
var SimulateWGSL string

//go:embed points.wgsl
var PointsWGSL string
