package function

import (
	"github.com/kailas-cloud/geoframe/internal/domain/geo"
	"github.com/kailas-cloud/geoframe/internal/domain/metric"
)

const namespaceDistance = "distance"

func distanceFunctions() []Function {
	pair := func(fields []string) []Arg {
		return []Arg{{Name: "point", Fields: fields}, {Name: "other", Fields: fields}}
	}

	return []Function{
		{
			Namespace:   namespaceDistance,
			Name:        "euclidean_2d",
			Description: "L2 distance between 2D points",
			Args:        pair(fieldsXY),
			Output:      KindFloat,
			eval: func(in Inputs, _ Settings) (any, error) {
				return metric.Euclidean2D(in.vec2(0), in.vec2(1)), nil
			},
		},
		{
			Namespace:   namespaceDistance,
			Name:        "euclidean_3d",
			Description: "L2 distance between 3D points",
			Args:        pair(fieldsXYZ),
			Output:      KindFloat,
			eval: func(in Inputs, _ Settings) (any, error) {
				return metric.Euclidean3D(in.vec3(0), in.vec3(1)), nil
			},
		},
		{
			Namespace:   namespaceDistance,
			Name:        "cosine_similarity_2d",
			Description: "cosine similarity, 0 for a zero vector",
			Args:        pair(fieldsXY),
			Output:      KindFloat,
			eval: func(in Inputs, _ Settings) (any, error) {
				return metric.CosineSimilarity2D(in.vec2(0), in.vec2(1)), nil
			},
		},
		{
			Namespace:   namespaceDistance,
			Name:        "cosine_similarity_3d",
			Description: "cosine similarity, 0 for a zero vector",
			Args:        pair(fieldsXYZ),
			Output:      KindFloat,
			eval: func(in Inputs, _ Settings) (any, error) {
				return metric.CosineSimilarity3D(in.vec3(0), in.vec3(1)), nil
			},
		},
		{
			Namespace:   namespaceDistance,
			Name:        "point_to_segment",
			Description: "distance from point to segment; squared for a zero-length segment",
			Args: []Arg{
				{Name: "point", Fields: fieldsXY},
				{Name: "start", Fields: fieldsXY},
				{Name: "end", Fields: fieldsXY},
			},
			Output: KindFloat,
			eval: func(in Inputs, _ Settings) (any, error) {
				return metric.PointToSegment(in.vec2(0), in.vec2(1), in.vec2(2)), nil
			},
		},
		{
			Namespace:   namespaceDistance,
			Name:        "bboxes_2d",
			Description: "vertex-to-edge minimum distance between quadrilaterals, 5 decimals",
			Args:        pair(fieldsQuad),
			Output:      KindFloat,
			eval: func(in Inputs, _ Settings) (any, error) {
				return metric.QuadMinDistance(in.quad(0), in.quad(1)), nil
			},
		},
		{
			Namespace:   namespaceDistance,
			Name:        "haversine",
			Description: "great-circle distance in meters on the WGS84 mean sphere",
			Args:        pair(fieldsLonLat),
			Output:      KindFloat,
			eval: func(in Inputs, _ Settings) (any, error) {
				lon1, lat1 := in.lonLat(0)
				lon2, lat2 := in.lonLat(1)
				return geo.Haversine(geo.LLA{Lon: lon1, Lat: lat1}, geo.LLA{Lon: lon2, Lat: lat2}), nil
			},
		},
	}
}
