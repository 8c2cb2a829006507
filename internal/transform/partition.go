package transform

import (
	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/model"
)

// PartitionStats counts how the observations split.
type PartitionStats struct {
	Volunteer    int
	Professional int
	BelowFloor   int
	UnknownOrg   int
}

// Partition splits observations into volunteer and professional sets by
// organization id. The two memberships are tested independently, so an
// organization listed on both sides lands in both sets. The professional
// side keeps only values strictly above minConcentration; the floor value
// itself is excluded. Input order is preserved within each set.
func Partition(obs []model.Observation, volunteerOrgs, professionalOrgs []string, minConcentration float64) ([]model.Observation, []model.Observation, PartitionStats) {
	volSet := orgSet(volunteerOrgs)
	proSet := orgSet(professionalOrgs)

	var stats PartitionStats
	var volunteer, professional []model.Observation

	for _, o := range obs {
		_, isVol := volSet[o.OrganizationID]
		_, isPro := proSet[o.OrganizationID]

		if isVol {
			volunteer = append(volunteer, o)
		}
		if isPro {
			if o.Value > minConcentration {
				professional = append(professional, o)
			} else {
				stats.BelowFloor++
			}
		}
		if !isVol && !isPro {
			stats.UnknownOrg++
		}
	}

	stats.Volunteer = len(volunteer)
	stats.Professional = len(professional)
	return volunteer, professional, stats
}

func orgSet(orgs []string) map[string]struct{} {
	set := make(map[string]struct{}, len(orgs))
	for _, org := range orgs {
		set[org] = struct{}{}
	}
	return set
}
