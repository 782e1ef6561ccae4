package function

import "github.com/kailas-cloud/geoframe/internal/domain/cell"

const namespaceS2 = "s2"

func s2Functions() []Function {
	argPoint := Arg{Name: "point", Fields: fieldsLonLat}
	argCell := Arg{Name: "cell"}

	return []Function{
		{
			Namespace:   namespaceS2,
			Name:        "lonlat_to_cellid",
			Description: "S2 cell id at the given level containing the point",
			Args:        []Arg{argPoint},
			Params:      []string{ParamLevel},
			Output:      KindUint,
			eval: func(in Inputs, s Settings) (any, error) {
				lon, lat := in.lonLat(0)
				id, err := cell.FromLonLat(lon, lat, s.Level)
				if err != nil {
					return nil, err
				}
				return uint64(id), nil
			},
		},
		{
			Namespace:   namespaceS2,
			Name:        "cellid_to_lonlat",
			Description: "center of the cell",
			Args:        []Arg{argCell},
			Output:      KindStruct,
			eval: func(in Inputs, _ Settings) (any, error) {
				c, err := cell.ToLonLat(in.cell(0))
				if err != nil {
					return nil, err
				}
				return LonLat{Lon: c.Lon, Lat: c.Lat}, nil
			},
		},
		{
			Namespace:   namespaceS2,
			Name:        "cell_contains_point",
			Description: "whether the cell contains the point",
			Args:        []Arg{argCell, argPoint},
			Output:      KindBool,
			eval: func(in Inputs, _ Settings) (any, error) {
				lon, lat := in.lonLat(1)
				return cell.ContainsPoint(in.cell(0), lon, lat)
			},
		},
		{
			Namespace:   namespaceS2,
			Name:        "cellid_to_vertices",
			Description: "the four cell corners, counter-clockwise",
			Args:        []Arg{argCell},
			Output:      KindList,
			eval: func(in Inputs, _ Settings) (any, error) {
				vs, err := cell.Vertices(in.cell(0))
				if err != nil {
					return nil, err
				}
				out := make([]LonLat, len(vs))
				for i, v := range vs {
					out[i] = LonLat{Lon: v.Lon, Lat: v.Lat}
				}
				return out, nil
			},
		},
		{
			Namespace:   namespaceS2,
			Name:        "cell_area",
			Description: "approximate cell area in steradians",
			Args:        []Arg{argCell},
			Output:      KindFloat,
			eval: func(in Inputs, _ Settings) (any, error) {
				return cell.Area(in.cell(0))
			},
		},
	}
}
