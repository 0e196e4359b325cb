package companies

import (
	"regexp"
	"strings"
)

// Mapping is the set of industries an occupation may be employed in.
// It is either a StrictIndustrySet or a FlexibleIndustrySet.
type Mapping interface {
	Allows(ind Industry) bool
	Industries() []Industry
	Strict() bool
	isMapping()
}

// StrictIndustrySet admits no employer outside its industries
type StrictIndustrySet []Industry

// FlexibleIndustrySet covers roles that exist in most sectors
type FlexibleIndustrySet []Industry

func (s StrictIndustrySet) Allows(ind Industry) bool { return contains(s, ind) }
func (s StrictIndustrySet) Industries() []Industry { return append([]Industry(nil), s...) }
func (s StrictIndustrySet) Strict() bool { return true }
func (s StrictIndustrySet) isMapping() {}

func (s FlexibleIndustrySet) Allows(ind Industry) bool { return contains(s, ind) }
func (s FlexibleIndustrySet) Industries() []Industry { return append([]Industry(nil), s...) }
func (s FlexibleIndustrySet) Strict() bool { return false }
func (s FlexibleIndustrySet) isMapping() {}

type keywordRule struct {
	keyword    string
	industries []Industry
}

var (
	gardening  = []Industry{IndustryNature, IndustryConstruction}
	healthcare = []Industry{IndustryHealthcare}
	legal      = []Industry{IndustryFinance, IndustryOther}
	clerical   = []Industry{IndustryFinance, IndustryRetail, IndustryEducation, IndustryHealthcare, IndustryOther}
	anySector  = []Industry{
		IndustryFinance, IndustryRetail, IndustryTechnology, IndustryHealthcare, IndustryConstruction,
		IndustryManufacturing, IndustryEducation, IndustryHospitality, IndustryOther,
	}
)

// strictRules are checked before flexibleRules; the first keyword contained
// in the normalized title wins
var strictRules = []keywordRule{
	{"landschaftsgärtner", gardening},
	{"gärtner", gardening},
	{"gartenbau", gardening},
	{"gardener", gardening},
	{"landscaper", gardening},

	{"informatiker", []Industry{IndustryTechnology}},
	{"informaticien", []Industry{IndustryTechnology}},
	{"softwareentwickler", []Industry{IndustryTechnology}},
	{"software engineer", []Industry{IndustryTechnology}},
	{"software developer", []Industry{IndustryTechnology}},
	{"programmierer", []Industry{IndustryTechnology}},
	{"programmer", []Industry{IndustryTechnology}},
	{"it spezialist", []Industry{IndustryTechnology}},
	{"systemadministrator", []Industry{IndustryTechnology}},
	{"system administrator", []Industry{IndustryTechnology}},
	{"datenbankadministrator", []Industry{IndustryTechnology}},

	{"krankenpfleger", healthcare},
	{"krankenschwester", healthcare},
	{"pflegefach", healthcare},
	{"pfleger", healthcare},
	{"nurse", healthcare},
	{"infirmier", healthcare},
	{"arzt", healthcare},
	{"ärztin", healthcare},
	{"mediziner", healthcare},
	{"chirurg", healthcare},
	{"physician", healthcare},
	{"médecin", healthcare},

	{"mechaniker", []Industry{IndustryManufacturing}},
	{"mechanic", []Industry{IndustryManufacturing}},
	{"werkzeugmacher", []Industry{IndustryManufacturing}},
	{"toolmaker", []Industry{IndustryManufacturing}},

	{"rechtsanwalt", legal},
	{"anwalt", legal},
	{"jurist", legal},
	{"lawyer", legal},
	{"avocat", legal},

	{"lehrer", []Industry{IndustryEducation}},
	{"teacher", []Industry{IndustryEducation}},
	{"enseignant", []Industry{IndustryEducation}},

	{"koch", []Industry{IndustryHospitality}},
	{"köchin", []Industry{IndustryHospitality}},
	{"cook", []Industry{IndustryHospitality}},
	{"cuisinier", []Industry{IndustryHospitality}},
}

var flexibleRules = []keywordRule{
	{"kaufmann", clerical},
	{"kauffrau", clerical},
	{"kaufmännisch", clerical},
	{"sachbearbeiter", clerical},
	{"clerk", clerical},
	{"employé de commerce", clerical},

	{"geschäftsführer", anySector},
	{"manager", anySector},
	{"direktor", anySector},
	{"director", anySector},
	{"leiter", anySector},
	{"sekretär", anySector},
	{"secretary", anySector},
	{"assistent", anySector},
	{"assistant", anySector},
}

// itDepartments are sectors large enough to employ their own informatics staff
var itDepartments = []Industry{
	IndustryFinance,
	IndustryHealthcare,
	IndustryEducation,
	IndustryManufacturing,
	IndustryRetail,
}

var (
	nonWord    = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	whitespace = regexp.MustCompile(`\s+`)
)

// NormalizeOccupation lowercases a title and strips punctuation
func NormalizeOccupation(title string) string {
	n := strings.ToLower(title)
	n = nonWord.ReplaceAllString(n, " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(n, " "))
}

// MappingFor returns the industries occupation may be employed in, or nil
// when no rule covers it and any industry is acceptable
func MappingFor(occupation string) Mapping {
	n := NormalizeOccupation(occupation)
	if n == "" {
		return nil
	}

	for _, rule := range strictRules {
		if strings.Contains(n, rule.keyword) {
			set := StrictIndustrySet(append([]Industry(nil), rule.industries...))
			if isInformatics(n) && set.Allows(IndustryTechnology) {
				for _, ind := range itDepartments {
					if !set.Allows(ind) {
						set = append(set, ind)
					}
				}
			}
			return set
		}
	}

	for _, rule := range flexibleRules {
		if strings.Contains(n, rule.keyword) {
			return FlexibleIndustrySet(append([]Industry(nil), rule.industries...))
		}
	}
	return nil
}

func isInformatics(normalized string) bool {
	return strings.Contains(normalized, "informati")
}

func contains(set []Industry, ind Industry) bool {
	for _, s := range set {
		if s == ind {
			return true
		}
	}
	return false
}
