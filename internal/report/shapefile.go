package report

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/model"
)

// siteFieldLen bounds site identifiers in the DBF. Portal identifiers run
// around 35 characters; anything longer is truncated.
const siteFieldLen = 64

// WriteShapefile writes matched pairs as a POINT layer located at the
// volunteer coordinate, with enough pair attributes for GIS review. The
// companion .shx and .dbf files are created alongside path.
func WriteShapefile(path string, pairs model.MatchResult) error {
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "report: create shapefile %s", path)
	}

	w.SetFields([]shp.Field{
		shp.StringField("VOL_SITE", siteFieldLen),
		shp.StringField("PRO_SITE", siteFieldLen),
		shp.FloatField("VOL_VALUE", 19, 6),
		shp.FloatField("PRO_VALUE", 19, 6),
		shp.FloatField("DIST_M", 19, 3),
		shp.FloatField("TDIFF_H", 19, 3),
	})

	for i, p := range pairs {
		w.Write(&shp.Point{X: p.Volunteer.Longitude, Y: p.Volunteer.Latitude})

		attrs := []any{
			clipField(p.Volunteer.SiteID),
			clipField(p.Professional.SiteID),
			p.Volunteer.Value,
			p.Professional.Value,
			p.DistanceM,
			p.TimeDiffHours,
		}
		for field, value := range attrs {
			if err := w.WriteAttribute(i, field, value); err != nil {
				w.Close()
				return eris.Wrapf(err, "report: write attributes for pair %d", i)
			}
		}
	}

	w.Close()
	return nil
}

func clipField(s string) string {
	if len(s) > siteFieldLen {
		return s[:siteFieldLen]
	}
	return s
}
