package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/df07/go-thinlens/pkg/core"
	"github.com/df07/go-thinlens/pkg/geometry"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	SurfaceType  string                 `json:"surfaceType,omitempty"`
	GeometryType string                 `json:"geometryType,omitempty"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	FrontFace    bool                   `json:"frontFace"`
	InFocus      bool                   `json:"inFocus"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

// centerSampler puts every sample in the middle of its range: the pixel
// center seen through the center of the lens
type centerSampler struct{}

func (centerSampler) Get1D() float64 { return 0.5 }

// inFocusTolerance is the relative depth band reported as in focus
const inFocusTolerance = 0.05

// handleInspect casts the unjittered ray through pixel (x, y) and reports
// the first surface it hits
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	x, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil || x < 0 || x >= s.camera.Width() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("x must be a pixel column in [0, %d)", s.camera.Width()))
		return
	}
	y, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil || y < 0 || y >= s.camera.Height() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("y must be a pixel row in [0, %d)", s.camera.Height()))
		return
	}

	writeJSON(w, http.StatusOK, s.inspectPixel(x, y))
}

func (s *Server) inspectPixel(x, y int) InspectResponse {
	ray := s.camera.GenerateRay(centerSampler{}, x, y)

	var result InspectResponse
	shape, hit, ok := s.scene.World.Closest(ray)
	if ok {
		geometryType, properties := extractGeometryInfo(shape)
		if hit.Surface.Kind == core.Glass {
			properties["refractiveIndex"] = hit.Surface.IOR
		}
		result = InspectResponse{
			Hit:          true,
			SurfaceType:  hit.Surface.Kind.String(),
			GeometryType: geometryType,
			Point:        arr(hit.Point),
			Normal:       arr(hit.Normal),
			Distance:     hit.T,
			FrontFace:    hit.FrontFace,
			Properties:   properties,
		}
	}

	if result.Hit {
		depth := vec(result.Point).Subtract(s.camera.Position()).Dot(s.camera.ViewDirection())
		focal := s.camera.FocalDistance()
		result.InFocus = depth >= focal*(1-inFocusTolerance) && depth <= focal*(1+inFocusTolerance)
	}
	return result
}

// extractGeometryInfo extracts geometry information with type assertions
func extractGeometryInfo(shape geometry.Shape) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch g := shape.(type) {
	case *geometry.Sphere:
		properties["center"] = arr(g.Center)
		properties["radius"] = g.Radius
		return "sphere", properties

	case *geometry.Plane:
		properties["point"] = arr(g.Point)
		properties["normal"] = arr(g.Normal)
		return "plane", properties

	case *geometry.Triangle:
		properties["v0"] = arr(g.V0)
		properties["v1"] = arr(g.V1)
		properties["v2"] = arr(g.V2)
		properties["normal"] = arr(g.Normal())
		return "triangle", properties

	default:
		return "unknown", properties
	}
}

func arr(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func vec(a [3]float64) core.Vec3 {
	return core.NewVec3(a[0], a[1], a[2])
}
