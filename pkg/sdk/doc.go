// Package geoframe evaluates geometric and geospatial functions over batches
// of rows in process: frame transforms between local map, ENU and ECEF
// coordinates, WGS84 and UTM conversions, S2 cell encoding and planar or
// spherical distances.
//
// # Batch API
//
// Functions are addressed by their qualified name. A row that lacks an input
// evaluates to null; a row whose input is invalid (zero-norm orientation,
// invalid cell id) reports its own error without failing the batch.
//
//	client, _ := geoframe.New(geoframe.WithWorkers(8))
//	results, err := client.Evaluate(ctx, "s2.lonlat_to_cellid", []geoframe.Row{
//	    {Structs: map[string]geoframe.Fields{"point": {"lon": 36.08, "lat": 56.78}}},
//	}, geoframe.Params{})
//
// # Typed rows
//
//	type Fix struct {
//	    Lon float64 `geoframe:"point.lon"`
//	    Lat float64 `geoframe:"point.lat"`
//	}
//
//	rows, _ := geoframe.RowsFrom(fixes)
//
// # Direct calls
//
//	ecef, err := geoframe.MapToECEF(p, q, offset)
//	lla := geoframe.ECEFToLLA(ecef)
package geoframe
