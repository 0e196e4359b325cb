package companies

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// MatchQuality records which fallback tier produced an employer
type MatchQuality string

// Match qualities, best first
const (
	MatchPerfect        MatchQuality = "perfect"
	MatchRegionMismatch MatchQuality = "region_mismatch"
	MatchNational       MatchQuality = "national"
	MatchSynthesized    MatchQuality = "synthesized"
)

// NationalRegion marks employers that operate across the whole country
const NationalRegion = "CH"

// nationalEmployers are well known employers per industry, used when the
// directory has nothing suitable
var nationalEmployers = map[Industry][]string{
	IndustryTechnology:    {"Swisscom AG", "Abacus Research AG", "Elca Informatik AG"},
	IndustryFinance:       {"UBS Switzerland AG", "PostFinance AG", "Raiffeisen Schweiz Genossenschaft", "Swiss Re AG"},
	IndustryHealthcare:    {"Hirslanden AG", "Insel Gruppe AG", "Swiss Medical Network SA"},
	IndustryEducation:     {"ETH Zürich", "EPFL", "Universität Bern"},
	IndustryManufacturing: {"ABB Schweiz AG", "Stadler Rail AG", "Bühler AG", "Schindler Aufzüge AG"},
	IndustryRetail:        {"Migros-Genossenschafts-Bund", "Coop Genossenschaft", "Manor AG"},
	IndustryConstruction:  {"Implenia Schweiz AG", "Losinger Marazzi AG", "Marti AG"},
	IndustryHospitality:   {"SV (Schweiz) AG", "Mövenpick Hotels & Resorts", "Swissport International AG"},
	IndustryNature:        {"Grün Stadt Zürich", "Stadtgärtnerei Basel", "fenaco Genossenschaft"},
	IndustryOther:         {"Die Schweizerische Post AG", "SBB AG", "Adecco Schweiz AG"},
}

// baseNames seed synthesized employer names per industry
var baseNames = map[Industry][]string{
	IndustryTechnology:    {"SwissTech", "DigitalHelvetic", "AlpineSoft", "SmartBit", "DataPeak", "CodeCraft", "NetAlpin", "BitMountain"},
	IndustryHealthcare:    {"MediCare", "HealthPlus", "VitaClinic", "SanaMed", "CarePlus", "MedCenter", "VitaCare", "SanaLife"},
	IndustryFinance:       {"FinancePartner", "WealthAdvisor", "CapitalTrust", "InvestSwiss", "AssetPro", "FinanzPro", "TreuhandService"},
	IndustryConstruction:  {"BauProfi", "ConstructPlus", "BuilderPro", "Bauwerk", "SolidBau", "SwissBuild", "ArchiBau"},
	IndustryManufacturing: {"TechnikPlus", "PräzisionsTech", "IndustryPro", "MechaTech", "MetallWerk", "SwissPrecision"},
	IndustryRetail:        {"HandelPlus", "RetailPro", "ShopMeister", "MarktPlus", "VerkaufsPro", "SwissRetail"},
	IndustryHospitality:   {"GastroPlus", "HotelPartner", "CateringService", "SwissGastro", "GastMeister", "KulinarikPlus"},
	IndustryEducation:     {"BildungsPlus", "LernCenter", "AkademiePro", "SwissEdu", "LernPartner", "TrainingPro"},
	IndustryNature:        {"GrünRaum", "AlpenGarten", "NaturWerk", "GartenProfi", "LandschaftPlus"},
	IndustryOther:         {"ServicePlus", "ProfiPartner", "SwissService", "QualityPro", "ExpertService", "PremiumPro"},
}

// Resolver finds a plausible employer for an occupation in a region
type Resolver struct {
	dir Directory
	rnd *rand.Rand
}

// NewResolver returns a resolver over dir. A nil dir skips the directory
// tiers; a nil rnd is seeded from the clock.
func NewResolver(dir Directory, rnd *rand.Rand) *Resolver {
	if rnd == nil {
		seed := uint64(time.Now().UnixNano())
		rnd = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	return &Resolver{dir: dir, rnd: rnd}
}

// Resolve returns an employer for occupation, trying in order: the same region
// with an allowed industry, any region with an allowed industry, a national
// employer of an allowed industry, and finally a synthesized name with a
// legal form that fits the region. Names in used are never returned again.
func (r *Resolver) Resolve(ctx context.Context, occupation, region string, used []string) (Company, MatchQuality, error) {
	industries := Industries
	if m := MappingFor(occupation); m != nil {
		industries = m.Industries()
	}
	taken := usedSet(used)

	if r.dir != nil {
		var regional []Company
		for _, ind := range industries {
			found, err := r.dir.ByRegionAndIndustry(ctx, region, ind)
			if err != nil {
				return Company{}, "", &LookupError{Message: fmt.Sprintf("failed to list %s companies in %s", ind, region), Cause: err}
			}
			regional = append(regional, found...)
		}
		if c, ok := r.pick(regional, occupation, taken); ok {
			return c, MatchPerfect, nil
		}

		var anywhere []Company
		for _, ind := range industries {
			found, err := r.dir.ByIndustry(ctx, ind)
			if err != nil {
				return Company{}, "", &LookupError{Message: fmt.Sprintf("failed to list %s companies", ind), Cause: err}
			}
			anywhere = append(anywhere, found...)
		}
		if c, ok := r.pick(anywhere, occupation, taken); ok {
			return c, MatchRegionMismatch, nil
		}
	}

	var national []Company
	for _, ind := range industries {
		for _, name := range nationalEmployers[ind] {
			national = append(national, Company{Name: name, Canton: NationalRegion, Industry: ind, SizeBand: "large"})
		}
	}
	if c, ok := r.pick(national, occupation, taken); ok {
		return c, MatchNational, nil
	}

	return r.synthesize(industries[0], region, taken), MatchSynthesized, nil
}

// pick chooses a random valid, unused company
func (r *Resolver) pick(candidates []Company, occupation string, taken map[string]struct{}) (Company, bool) {
	var valid []Company
	for _, c := range candidates {
		if _, dup := taken[strings.ToLower(c.Name)]; dup {
			continue
		}
		if ok, _ := Validate(c, occupation); ok {
			valid = append(valid, c)
		}
	}
	if len(valid) == 0 {
		return Company{}, false
	}
	return valid[r.rnd.IntN(len(valid))], true
}

// synthesize invents an employer name for industry in region
func (r *Resolver) synthesize(industry Industry, region string, taken map[string]struct{}) Company {
	bases, ok := baseNames[industry]
	if !ok {
		industry = IndustryOther
		bases = baseNames[IndustryOther]
	}
	forms := LegalForms(region)
	country := countryWord[languageRegion(region)]
	patterns := 3
	if region == "" {
		patterns = 2
	}

	var name string
	for attempt := 0; attempt < 10; attempt++ {
		base := bases[r.rnd.IntN(len(bases))]
		form := forms[r.rnd.IntN(len(forms))]
		switch r.rnd.IntN(patterns) {
		case 0:
			name = fmt.Sprintf("%s %s", base, form)
		case 1:
			name = fmt.Sprintf("%s %s %s", base, country, form)
		default:
			name = fmt.Sprintf("%s %s %s", base, strings.ToUpper(region), form)
		}
		if _, dup := taken[strings.ToLower(name)]; !dup {
			break
		}
	}

	return Company{
		Name:      name,
		Canton:    region,
		Industry:  industry,
		SizeBand:  "small",
		Synthetic: true,
	}
}

// LegalForms returns the company suffixes customary in a canton's language region
func LegalForms(canton string) []string {
	switch languageRegion(canton) {
	case "fr":
		return []string{"SA", "Sàrl"}
	case "it":
		return []string{"SA", "Sagl"}
	default:
		return []string{"AG", "GmbH"}
	}
}

var countryWord = map[string]string{"de": "Schweiz", "fr": "Suisse", "it": "Svizzera"}

func languageRegion(canton string) string {
	switch strings.ToUpper(canton) {
	case "GE", "VD", "NE", "JU", "FR":
		return "fr"
	case "TI":
		return "it"
	default:
		return "de"
	}
}

func usedSet(used []string) map[string]struct{} {
	set := make(map[string]struct{}, len(used))
	for _, u := range used {
		set[strings.ToLower(strings.TrimSpace(u))] = struct{}{}
	}
	return set
}
