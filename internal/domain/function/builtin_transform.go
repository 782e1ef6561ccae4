package function

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/kailas-cloud/geoframe/internal/domain/frame"
	"github.com/kailas-cloud/geoframe/internal/domain/geo"
	"github.com/kailas-cloud/geoframe/internal/domain/rotation"
)

const namespaceTransform = "transform"

type frameOp func(p r3.Vec, q rotation.Quaternion, t r3.Vec) (r3.Vec, error)

// frameFunction wraps a (point, rotation, vector) transform.
func frameFunction(name, description, third string, op frameOp) Function {
	return Function{
		Namespace:   namespaceTransform,
		Name:        name,
		Description: description,
		Args: []Arg{
			{Name: "point", Fields: fieldsXYZ},
			{Name: "rotation", Fields: fieldsXYZW},
			{Name: third, Fields: fieldsXYZ},
		},
		Output: KindStruct,
		eval: func(in Inputs, _ Settings) (any, error) {
			v, err := op(in.vec3(0), in.quat(1), in.vec3(2))
			if err != nil {
				return nil, err
			}
			return fromVec(v), nil
		},
	}
}

func transformFunctions() []Function {
	argXYZ := Arg{Name: "point", Fields: fieldsXYZ}
	argLLA := Arg{Name: "point", Fields: fieldsLLA}
	argRotation := Arg{Name: "rotation", Fields: fieldsXYZW}

	return []Function{
		frameFunction("map_to_ecef", "local map frame to ECEF", "offset", frame.MapToECEF),
		frameFunction("ecef_to_map", "ECEF to local map frame", "offset", frame.ECEFToMap),
		frameFunction("enu_to_ecef", "local ENU frame to ECEF", "offset", frame.ENUToECEF),
		frameFunction("ecef_to_enu", "ECEF to local ENU frame", "offset", frame.ECEFToENU),
		frameFunction("rotate_map_coords", "point plus the rotated scale vector", "scale", frame.RotateMapOffset),
		{
			Namespace:   namespaceTransform,
			Name:        "ecef_to_lla",
			Description: "ECEF to WGS84 lon/lat/alt",
			Args:        []Arg{argXYZ},
			Output:      KindStruct,
			eval: func(in Inputs, _ Settings) (any, error) {
				p := geo.ECEFToGeodetic(in.vec3(0))
				return LLA{Lon: p.Lon, Lat: p.Lat, Alt: p.Alt}, nil
			},
		},
		{
			Namespace:   namespaceTransform,
			Name:        "lla_to_ecef",
			Description: "WGS84 lon/lat/alt to ECEF",
			Args:        []Arg{argLLA},
			Output:      KindStruct,
			eval: func(in Inputs, _ Settings) (any, error) {
				return fromVec(geo.GeodeticToECEF(in.lla(0))), nil
			},
		},
		{
			Namespace:   namespaceTransform,
			Name:        "lla_to_utm",
			Description: "WGS84 lon/lat/alt to UTM",
			Args:        []Arg{argLLA},
			Output:      KindStruct,
			eval: func(in Inputs, _ Settings) (any, error) {
				u := geo.ToUTM(in.lla(0))
				return UTM{
					Easting:     u.Easting,
					Northing:    u.Northing,
					Alt:         u.Alt,
					Zone:        u.Zone,
					Band:        u.Band,
					Convergence: u.Convergence,
				}, nil
			},
		},
		{
			Namespace:   namespaceTransform,
			Name:        "lla_to_utm_zone_number",
			Description: "UTM zone number with the Norway and Svalbard exceptions",
			Args:        []Arg{{Name: "point", Fields: fieldsLonLat}},
			Output:      KindInt,
			eval: func(in Inputs, _ Settings) (any, error) {
				lon, lat := in.lonLat(0)
				return geo.UTMZoneNumber(lon, lat), nil
			},
		},
		{
			Namespace:   namespaceTransform,
			Name:        "interpolate_linear",
			Description: "coef*point + (1-coef)*other, not clamped",
			Args:        []Arg{argXYZ, {Name: "other", Fields: fieldsXYZ}},
			Params:      []string{ParamCoef},
			Output:      KindStruct,
			eval: func(in Inputs, s Settings) (any, error) {
				return fromVec(frame.Lerp(in.vec3(0), in.vec3(1), s.Coef)), nil
			},
		},
		{
			Namespace:   namespaceTransform,
			Name:        "quat_to_euler_angles",
			Description: "roll, pitch and yaw in radians",
			Args:        []Arg{argRotation},
			Output:      KindStruct,
			eval: func(in Inputs, _ Settings) (any, error) {
				a, err := rotation.EulerAngles(in.quat(0))
				if err != nil {
					return nil, err
				}
				return Euler{Roll: a.Roll, Pitch: a.Pitch, Yaw: a.Yaw}, nil
			},
		},
		{
			Namespace:   namespaceTransform,
			Name:        "get_rotation_matrix",
			Description: "4x4 homogeneous matrix, column-major",
			Args:        []Arg{argRotation, {Name: "offset", Fields: fieldsXYZ}},
			Output:      KindList,
			eval: func(in Inputs, _ Settings) (any, error) {
				m, err := rotation.Homogeneous(in.quat(0), in.vec3(1))
				if err != nil {
					return nil, err
				}
				return m[:], nil
			},
		},
	}
}
