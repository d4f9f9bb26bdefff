package dataset

import (
	"math"
	"sort"

	"github.com/darkmine-oss/baselode/internal/models"
	"github.com/darkmine-oss/baselode/internal/schema"
)

// Options controls a table load.
type Options struct {
	// SourceColumnMap adds caller aliases (source spelling -> canonical
	// field) on top of the static alias table.
	SourceColumnMap map[string]string
	// HoleIDColumn is the preferred hole id column, tried before the
	// built-in candidates.
	HoleIDColumn string
	// Long marks assay/geology input as long format (one row per code,
	// value pair) to be flattened to wide before validation.
	Long bool
	// CRS overrides the collar table's coordinate reference system.
	CRS string
}

// Interval bounds are rounded to millimeter precision, which absorbs
// float noise from upstream unit conversions.
const boundPrecision = 1e3

func roundBound(v float64) float64 {
	return math.Round(v*boundPrecision) / boundPrecision
}

// prepare standardizes and canonicalizes a batch, returning the alias
// column and the rewritten rows.
func prepare(rows []models.RawRow, opts Options) (string, []models.RawRow, error) {
	standardized := schema.StandardizeRows(rows, opts.SourceColumnMap)
	return schema.CanonicalizeHoleIDRows(standardized, opts.HoleIDColumn)
}

// LoadCollars validates and types a collar batch. Position comes from
// easting/northing when present, otherwise latitude/longitude; a batch
// with neither pair fails. Elevation is optional and defaults to zero.
// datasource_hole_id is backfilled from hole_id when absent, mirroring
// upstream exports that only carry one id column.
func LoadCollars(rows []models.RawRow, opts Options) (models.CollarTable, error) {
	const op = "load collars"
	alias, canon, err := prepare(rows, opts)
	if err != nil {
		return models.CollarTable{}, wrapOp(op, err)
	}

	hasXY := columnPresent(canon, schema.FieldEasting) && columnPresent(canon, schema.FieldNorthing)
	hasLatLon := columnPresent(canon, schema.FieldLatitude) && columnPresent(canon, schema.FieldLongitude)
	if !hasXY && !hasLatLon {
		return models.CollarTable{}, wrapOp(op, &MissingColumnError{
			Table:  "collar",
			Column: "easting,northing (or latitude,longitude)",
		})
	}
	hasElevation := columnPresent(canon, schema.FieldElevation)

	consumed := consumedSet(
		schema.FieldDatasourceHoleID, schema.FieldProjectID, schema.FieldCRS,
		schema.FieldEasting, schema.FieldNorthing,
		schema.FieldLatitude, schema.FieldLongitude, schema.FieldElevation,
	)

	table := models.CollarTable{AliasColumn: alias, Collars: make([]models.Collar, 0, len(canon))}
	for i, row := range canon {
		holeID := row.String(schema.FieldHoleID)
		if holeID == "" {
			return models.CollarTable{}, wrapOp(op, &InvalidValueError{
				Table: "collar", Row: i, Column: schema.FieldHoleID, Reason: "is empty",
			})
		}

		collar := models.Collar{
			HoleID:           holeID,
			DatasourceHoleID: row.String(schema.FieldDatasourceHoleID),
			ProjectID:        row.String(schema.FieldProjectID),
			CRS:              row.String(schema.FieldCRS),
			Extra:            extraColumns(row, consumed),
		}
		if collar.DatasourceHoleID == "" {
			collar.DatasourceHoleID = holeID
		}
		if opts.CRS != "" {
			collar.CRS = opts.CRS
		}

		if hasXY {
			x, okX := row.Float(schema.FieldEasting)
			y, okY := row.Float(schema.FieldNorthing)
			if !okX {
				return models.CollarTable{}, wrapOp(op, &InvalidValueError{
					Table: "collar", Row: i, Column: schema.FieldEasting, Reason: "is not a finite number",
				})
			}
			if !okY {
				return models.CollarTable{}, wrapOp(op, &InvalidValueError{
					Table: "collar", Row: i, Column: schema.FieldNorthing, Reason: "is not a finite number",
				})
			}
			collar.Easting, collar.Northing = &x, &y
		}
		if hasLatLon {
			lat, okLat := row.Float(schema.FieldLatitude)
			lon, okLon := row.Float(schema.FieldLongitude)
			if !hasXY && !okLat {
				return models.CollarTable{}, wrapOp(op, &InvalidValueError{
					Table: "collar", Row: i, Column: schema.FieldLatitude, Reason: "is not a finite number",
				})
			}
			if !hasXY && !okLon {
				return models.CollarTable{}, wrapOp(op, &InvalidValueError{
					Table: "collar", Row: i, Column: schema.FieldLongitude, Reason: "is not a finite number",
				})
			}
			if okLat && okLon {
				collar.Latitude, collar.Longitude = &lat, &lon
			}
		}
		if hasElevation {
			if elev, ok := row.Float(schema.FieldElevation); ok {
				collar.Elevation = elev
			} else {
				return models.CollarTable{}, wrapOp(op, &InvalidValueError{
					Table: "collar", Row: i, Column: schema.FieldElevation, Reason: "is not a finite number",
				})
			}
		}

		table.Collars = append(table.Collars, collar)
	}
	return table, nil
}

// LoadSurveys validates and types a survey batch. Measured depth may
// arrive as either from or depth; azimuth and dip are required and must be
// finite on every row. Stations are returned sorted by (hole, depth).
func LoadSurveys(rows []models.RawRow, opts Options) (models.SurveyTable, error) {
	const op = "load surveys"
	alias, canon, err := prepare(rows, opts)
	if err != nil {
		return models.SurveyTable{}, wrapOp(op, err)
	}

	depthCol := schema.FieldFrom
	if !columnPresent(canon, depthCol) {
		depthCol = schema.FieldDepth
	}
	if !columnPresent(canon, depthCol) {
		return models.SurveyTable{}, wrapOp(op, &MissingColumnError{Table: "survey", Column: "from (or depth)"})
	}
	if err := requireColumns(canon, "survey", schema.FieldAzimuth, schema.FieldDip); err != nil {
		return models.SurveyTable{}, wrapOp(op, err)
	}

	consumed := consumedSet(depthCol, schema.FieldTo, schema.FieldAzimuth, schema.FieldDip)

	table := models.SurveyTable{AliasColumn: alias, Stations: make([]models.SurveyStation, 0, len(canon))}
	for i, row := range canon {
		holeID := row.String(schema.FieldHoleID)
		if holeID == "" {
			return models.SurveyTable{}, wrapOp(op, &InvalidValueError{
				Table: "survey", Row: i, Column: schema.FieldHoleID, Reason: "is empty",
			})
		}
		station := models.SurveyStation{HoleID: holeID, Extra: extraColumns(row, consumed)}

		var ok bool
		if station.From, ok = row.Float(depthCol); !ok {
			return models.SurveyTable{}, wrapOp(op, &InvalidValueError{
				Table: "survey", Row: i, Column: depthCol, Reason: "is not a finite number",
			})
		}
		if station.Azimuth, ok = row.Float(schema.FieldAzimuth); !ok {
			return models.SurveyTable{}, wrapOp(op, &InvalidValueError{
				Table: "survey", Row: i, Column: schema.FieldAzimuth, Reason: "is not a finite number",
			})
		}
		if station.Dip, ok = row.Float(schema.FieldDip); !ok {
			return models.SurveyTable{}, wrapOp(op, &InvalidValueError{
				Table: "survey", Row: i, Column: schema.FieldDip, Reason: "is not a finite number",
			})
		}
		if to, okTo := row.Float(schema.FieldTo); okTo {
			station.To = &to
		}

		table.Stations = append(table.Stations, station)
	}

	sortStations(table.Stations)
	return table, nil
}

func sortStations(stations []models.SurveyStation) {
	// Stable so duplicate depths keep their source order.
	sort.SliceStable(stations, func(i, j int) bool {
		if stations[i].HoleID != stations[j].HoleID {
			return stations[i].HoleID < stations[j].HoleID
		}
		return stations[i].From < stations[j].From
	})
}

// LoadAssays validates and types an assay batch. Every row needs a hole
// id, finite from/to with to > from; mid is derived. Assay value columns
// pass through untouched in Extra. Long-format input is flattened first.
func LoadAssays(rows []models.RawRow, opts Options) (models.IntervalTable, error) {
	return loadIntervals(rows, opts, "assay", false)
}

// LoadGeology validates and types a geology batch. On top of the assay
// rules, geology needs at least one of geology_code/geology_description
// (the missing one is backfilled from the other) and intervals on the
// same hole must not overlap.
func LoadGeology(rows []models.RawRow, opts Options) (models.IntervalTable, error) {
	return loadIntervals(rows, opts, "geology", true)
}

func loadIntervals(rows []models.RawRow, opts Options, table string, geology bool) (models.IntervalTable, error) {
	op := "load " + table + "s"
	if geology {
		op = "load geology"
	}

	alias, canon, err := prepare(rows, opts)
	if err != nil {
		return models.IntervalTable{}, wrapOp(op, err)
	}

	if opts.Long {
		canon, err = flattenLongIntervals(canon, table)
		if err != nil {
			return models.IntervalTable{}, wrapOp(op, err)
		}
	}

	if err := requireColumns(canon, table, schema.FieldFrom, schema.FieldTo); err != nil {
		return models.IntervalTable{}, wrapOp(op, err)
	}

	hasCode := columnPresent(canon, schema.FieldGeologyCode)
	hasDescription := columnPresent(canon, schema.FieldGeologyDescription)
	if geology && !hasCode && !hasDescription {
		return models.IntervalTable{}, wrapOp(op, &MissingColumnError{
			Table:  table,
			Column: schema.FieldGeologyCode + " (or " + schema.FieldGeologyDescription + ")",
		})
	}

	consumed := consumedSet(schema.FieldFrom, schema.FieldTo, schema.FieldMid)

	out := models.IntervalTable{AliasColumn: alias, Intervals: make([]models.Interval, 0, len(canon))}
	for i, row := range canon {
		holeID := row.String(schema.FieldHoleID)
		if holeID == "" {
			return models.IntervalTable{}, wrapOp(op, &InvalidValueError{
				Table: table, Row: i, Column: schema.FieldHoleID, Reason: "is empty",
			})
		}

		from, okFrom := row.Float(schema.FieldFrom)
		if !okFrom {
			return models.IntervalTable{}, wrapOp(op, &InvalidValueError{
				Table: table, Row: i, Column: schema.FieldFrom, Reason: "is not a finite number",
			})
		}
		to, okTo := row.Float(schema.FieldTo)
		if !okTo {
			return models.IntervalTable{}, wrapOp(op, &InvalidValueError{
				Table: table, Row: i, Column: schema.FieldTo, Reason: "is not a finite number",
			})
		}
		from, to = roundBound(from), roundBound(to)
		if to <= from {
			return models.IntervalTable{}, wrapOp(op, &InvalidValueError{
				Table: table, Row: i, Column: schema.FieldTo, Reason: "must be greater than from",
			})
		}

		iv := models.Interval{
			HoleID: holeID,
			From:   from,
			To:     to,
			Mid:    0.5 * (from + to),
			Extra:  extraColumns(row, consumed),
		}

		if geology {
			code := row.String(schema.FieldGeologyCode)
			description := row.String(schema.FieldGeologyDescription)
			if code == "" {
				code = description
			}
			if description == "" {
				description = code
			}
			if iv.Extra == nil {
				iv.Extra = make(models.RawRow)
			}
			iv.Extra[schema.FieldGeologyCode] = code
			iv.Extra[schema.FieldGeologyDescription] = description
		}

		out.Intervals = append(out.Intervals, iv)
	}

	sortIntervals(out.Intervals)

	if geology {
		if err := ValidateNoOverlappingIntervals(out.Intervals, "geology"); err != nil {
			return models.IntervalTable{}, wrapOp(op, err)
		}
	}
	return out, nil
}
