package report

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/model"
)

// WriteXLSX writes the workbook form of a run: a Matched Pairs sheet with
// the same columns as the CSV export, and a Summary sheet of key/value rows.
func WriteXLSX(path string, pairs model.MatchResult, run *model.Run) error {
	wb := xlsx.NewFile()

	sheet, err := wb.AddSheet("Matched Pairs")
	if err != nil {
		return eris.Wrap(err, "report: add pairs sheet")
	}
	header := sheet.AddRow()
	for _, name := range pairsHeader {
		header.AddCell().SetString(name)
	}
	for _, p := range pairs {
		row := sheet.AddRow()
		row.AddCell().SetString(p.Volunteer.SiteID)
		row.AddCell().SetString(p.Professional.SiteID)
		row.AddCell().SetString(p.Volunteer.OrganizationID)
		row.AddCell().SetString(p.Professional.OrganizationID)
		row.AddCell().SetFloat(p.Volunteer.Value)
		row.AddCell().SetFloat(p.Professional.Value)
		row.AddCell().SetString(p.Volunteer.Unit)
		row.AddCell().SetString(p.Professional.Unit)
		row.AddCell().SetString(p.Volunteer.Timestamp.UTC().Format(time.RFC3339))
		row.AddCell().SetString(p.Professional.Timestamp.UTC().Format(time.RFC3339))
		row.AddCell().SetFloat(p.Volunteer.Latitude)
		row.AddCell().SetFloat(p.Volunteer.Longitude)
		row.AddCell().SetFloat(p.Professional.Latitude)
		row.AddCell().SetFloat(p.Professional.Longitude)
		row.AddCell().SetFloat(p.DistanceM)
		row.AddCell().SetFloat(p.TimeDiffHours)
	}

	if err := addSummarySheet(wb, run); err != nil {
		return err
	}

	if err := wb.Save(path); err != nil {
		return eris.Wrap(err, "report: save workbook")
	}

	return nil
}

func addSummarySheet(wb *xlsx.File, run *model.Run) error {
	sheet, err := wb.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}

	addString := func(key, value string) {
		row := sheet.AddRow()
		row.AddCell().SetString(key)
		row.AddCell().SetString(value)
	}
	addFloat := func(key string, value float64) {
		row := sheet.AddRow()
		row.AddCell().SetString(key)
		row.AddCell().SetFloat(value)
	}
	addInt := func(key string, value int) {
		row := sheet.AddRow()
		row.AddCell().SetString(key)
		row.AddCell().SetInt(value)
	}

	addString("Run ID", run.ID)
	addString("Status", string(run.Status))
	addString("Created", run.CreatedAt.UTC().Format(time.RFC3339))
	addString("Characteristic", run.Config.Characteristic)
	addString("State Code", run.Config.StateCode)
	if run.Config.StartDate != "" {
		addString("Date Range", run.Config.StartDate+" to "+run.Config.EndDate)
	}
	addFloat("Max Distance (m)", run.Config.MaxDistanceM)
	addFloat("Max Time (hours)", run.Config.MaxTimeHours)
	addString("Match Policy", run.Config.Strategy)
	addFloat("Min Concentration", run.Config.MinConcentration)
	addInt("Volunteer Obs", run.VolunteerCount)
	addInt("Professional Obs", run.ProfessionalCount)
	addInt("Matched Pairs", run.PairCount)

	if s := run.Summary; s != nil {
		addInt("Sample Size (N)", s.N)
		addFloat("R-squared", s.RSquared)
		addFloat("Slope", s.Slope)
		addFloat("Intercept", s.Intercept)
		addFloat("P-value", s.PValue)
		addFloat("Standard Error", s.StdErr)
	}

	return nil
}
