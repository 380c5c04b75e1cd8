package screening

import "AffiliationChecker/internal/domain"

var testPatterns = []string{
	"ministry of education",
	"ministry of",
	"department of education",
	"national science foundation",
	"government of",
	"state council",
}

var testStopWords = []string{
	"university", "of", "the", "institute", "college", "school", "department",
	"faculty", "center", "centre", "national", "state", "technical", "technology", "and",
}

var testAcronyms = map[string]string{
	"MIT": "Massachusetts Institute of Technology",
	"TUM": "Technical University of Munich",
}

func testRules(targets ...string) Rules {
	return Rules{
		Targets:      domain.NewCountrySet(targets...),
		MaxWorks:     30,
		Patterns:     NewPatternFilter(testPatterns),
		Institutions: NewInstitutionMatcher(testStopWords, testAcronyms),
	}
}

func record(name, country string, start, end int) domain.AffiliationRecord {
	return domain.AffiliationRecord{
		InstitutionName: name,
		CountryCode:     country,
		YearStart:       start,
		YearEnd:         end,
		Source:          domain.SourceProfileHistory,
	}
}

func coauthor(id, name, inst, country string) domain.CoauthorAffiliation {
	return domain.CoauthorAffiliation{
		CoauthorID:   id,
		CoauthorName: name,
		Affiliation: domain.AffiliationRecord{
			InstitutionName: inst,
			CountryCode:     country,
			Source:          domain.SourceCoauthorWork,
		},
	}
}
