package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/model"
)

const summaryTitle = "Blue Thumb Virtual Triangulation - Summary Statistics"

// WriteSummary writes the plain-text statistics file for a run: record
// counts, the regression fit, and the configuration snapshot the run
// executed with.
func WriteSummary(path string, run *model.Run) error {
	var b strings.Builder

	fmt.Fprintln(&b, summaryTitle)
	fmt.Fprintln(&b, strings.Repeat("=", 55))
	fmt.Fprintln(&b)

	fmt.Fprintf(&b, "%-21s%d\n", "Matched Pairs:", run.PairCount)
	fmt.Fprintf(&b, "%-21s%d\n", "Volunteer Obs:", run.VolunteerCount)
	fmt.Fprintf(&b, "%-21s%d\n", "Professional Obs:", run.ProfessionalCount)
	fmt.Fprintln(&b)

	if s := run.Summary; s != nil {
		fmt.Fprintf(&b, "%-21s%d\n", "Sample Size (N):", s.N)
		fmt.Fprintf(&b, "%-21s%.6f\n", "R-squared:", s.RSquared)
		fmt.Fprintf(&b, "%-21s%.6f\n", "Slope:", s.Slope)
		fmt.Fprintf(&b, "%-21s%.6f\n", "Intercept:", s.Intercept)
		fmt.Fprintf(&b, "%-21s%.2e\n", "P-value:", s.PValue)
		fmt.Fprintf(&b, "%-21s%.6f\n", "Standard Error:", s.StdErr)
	} else {
		fmt.Fprintln(&b, "No regression computed (fewer than 2 matched pairs).")
	}
	fmt.Fprintln(&b)

	cfg, err := yaml.Marshal(run.Config)
	if err != nil {
		return eris.Wrap(err, "report: marshal run config")
	}
	fmt.Fprintln(&b, "Run Configuration")
	fmt.Fprintln(&b, strings.Repeat("-", 55))
	b.Write(cfg)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return eris.Wrap(err, "report: write summary")
	}

	return nil
}
