package quality

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-synth/internal/dates"
	"github.com/jonathan/cv-synth/internal/types"
)

var testToday = dates.MustParse("2025-06")

func ym(s string) dates.YearMonth { return dates.MustParse(s) }

func end(s string) *dates.YearMonth {
	e := dates.MustParse(s)
	return &e
}

func goodDocument() *types.Document {
	return &types.Document{
		FirstName:       "Laura",
		LastName:        "Meier",
		Canton:          "ZH",
		Language:        "de",
		Occupation:      "Informatiker",
		Age:             34,
		ExperienceYears: 10,
		CareerLevel:     types.LevelSenior,
		Summary:         "Erfahrener Softwareentwickler mit zehn Jahren Praxis in Bankwesen und Telekommunikation, spezialisiert auf skalierbare Cloud-Architekturen.",
		Education: []types.Education{
			{Institution: "Kantonsschule Zürich", Degree: "Matura", Start: ym("2006-01"), End: end("2010-01")},
			{Institution: "ETH Zürich", Degree: "MSc Informatik", Start: ym("2010-01"), End: end("2015-01")},
		},
		Jobs: []types.Job{
			{
				Company: "Swisscom AG", Position: "Junior Softwareentwickler", Level: types.LevelJunior,
				Industry: "technology", Canton: "BE", Start: ym("2015-03"), End: end("2018-06"),
				Achievements: []string{
					"Reduzierte Ladezeiten der Kundenplattform um 12%",
					"Betreute 4 Projekte zur Testautomatisierung",
					"Unterstützte 15 Kunden beim Umstieg auf neue Cloud-Dienste",
				},
			},
			{
				Company: "UBS Switzerland AG", Position: "Softwareentwickler", Level: types.LevelMid,
				Industry: "finance", Canton: "ZH", Start: ym("2018-06"), End: end("2021-03"),
				Achievements: []string{
					"Steigerte die Verfügbarkeit des Zahlungssystems um 20%",
					"Koordinierte ein Team von 6 Entwicklern im Migrationsprogramm",
					"Verkürzte Release-Zyklen durch 8 Projekte mit Continuous Delivery",
				},
			},
			{
				Company: "Zürcher Kantonalbank", Position: "Senior Softwareentwickler", Level: types.LevelSenior,
				Industry: "finance", Canton: "ZH", Start: ym("2021-03"),
				Achievements: []string{
					"Senkte Betriebskosten der Handelsplattform um 25%",
					"Führte ein Team von 12 Personen durch die Einführung von Kubernetes",
					"Verantwortete ein Budget von CHF 1.2 Mio für Sicherheitsinitiativen",
				},
			},
		},
		Skills: []string{"Go", "Kubernetes", "PostgreSQL", "Terraform", "Scrum", "Java", "Linux", "Englisch C1"},
	}
}

func score(doc *types.Document) *types.Report {
	return Score(doc, Options{Now: testToday})
}

func TestScore_GoodDocumentPasses(t *testing.T) {
	report := score(goodDocument())

	assert.Empty(t, report.Issues)
	assert.Empty(t, report.Timeline)
	assert.GreaterOrEqual(t, report.Score.Overall, 90.0)
	assert.Equal(t, 0, report.ErrorCount)
	assert.True(t, report.Passed)
	assert.Equal(t, 75.0, report.Threshold)
}

func TestScore_StrippingMetricsDropsAchievement(t *testing.T) {
	before := score(goodDocument())

	digits := regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	doc := goodDocument()
	for i := range doc.Jobs {
		for k, a := range doc.Jobs[i].Achievements {
			doc.Jobs[i].Achievements[k] = digits.ReplaceAllString(a, "")
		}
	}
	after := score(doc)

	assert.GreaterOrEqual(t, before.Score.Achievement-after.Score.Achievement, 30.0)
	assert.Equal(t, before.Score.Realism, after.Score.Realism)
}

func TestScore_AgeExperienceMismatchFails(t *testing.T) {
	doc := goodDocument()
	doc.Age = 24

	report := score(doc)
	assert.False(t, report.Passed)
	assert.Greater(t, report.ErrorCount, 0)
	assert.LessOrEqual(t, report.Score.Realism, 40.0)
	assert.NotEmpty(t, report.Timeline)
}

func TestScore_PlaceholderEmployerIsError(t *testing.T) {
	doc := goodDocument()
	doc.Jobs[1].Company = "Verschiedene Positionen"

	report := score(doc)
	assert.False(t, report.Passed)
	assert.Greater(t, report.ErrorCount, 0)
}

func TestScore_IndustryMismatch(t *testing.T) {
	doc := goodDocument()
	doc.Jobs[0].Company = "Gasthof Sonne"
	doc.Jobs[0].Industry = "hospitality"

	report := score(doc)
	require.NotEmpty(t, report.Issues)
	assert.Equal(t, types.DimensionRealism, report.Issues[0].Dimension)
	assert.Contains(t, report.Issues[0].Message, "strict mapping violation")
	assert.Less(t, report.Score.Realism, 100.0)
}

func TestScore_DuplicateEmployer(t *testing.T) {
	doc := goodDocument()
	doc.Jobs[2].Company = "ubs switzerland ag"

	report := score(doc)
	require.NotEmpty(t, report.Issues)
	assert.Contains(t, report.Issues[0].Message, "appears in job 2 and job 3")
}

func TestScore_Completeness(t *testing.T) {
	doc := goodDocument()
	doc.Summary = "Kurz."
	doc.Education = nil
	doc.Jobs[0].Achievements = doc.Jobs[0].Achievements[:1]
	doc.Skills = doc.Skills[:3]

	report := score(doc)
	// short summary 10, no education 20, thin job 10, few skills 5
	assert.InDelta(t, 55.0, report.Score.Completeness, 0.001)
}

func TestScore_EmptyDocument(t *testing.T) {
	report := score(&types.Document{})

	assert.False(t, report.Passed)
	assert.Greater(t, report.ErrorCount, 0)
	assert.Less(t, report.Score.Completeness, 50.0)
	assert.Less(t, report.Score.Achievement, 50.0)
}

func TestScore_LanguagePenalties(t *testing.T) {
	doc := goodDocument()
	for i := range doc.Jobs {
		for k, a := range doc.Jobs[i].Achievements {
			doc.Jobs[i].Achievements[k] = "Erfolgreich " + strings.ToLower(a[:1]) + a[1:]
		}
	}

	report := score(doc)
	var messages []string
	for _, issue := range report.Issues {
		if issue.Dimension == types.DimensionLanguage {
			messages = append(messages, issue.Message)
		}
	}
	require.Len(t, messages, 2)
	assert.Contains(t, messages[0], "opening verb variety")
	assert.Contains(t, messages[1], "filler adverb")
	assert.InDelta(t, 80.0, report.Score.Language, 0.001)
}

func TestScore_ImplausibleMetric(t *testing.T) {
	doc := goodDocument()
	doc.Jobs[0].Achievements[0] = "Reduzierte Ladezeiten der Kundenplattform um 301%"

	report := score(doc)
	require.NotEmpty(t, report.Issues)
	found := false
	for _, issue := range report.Issues {
		if issue.Dimension == types.DimensionAchievement && strings.Contains(issue.Message, "exceeds absolute limit") {
			found = true
		}
	}
	assert.True(t, found)
	assert.Less(t, report.Score.Achievement, 100.0)
}

func TestScore_ThresholdOverride(t *testing.T) {
	report := Score(goodDocument(), Options{Now: testToday, Threshold: 100.5})
	assert.False(t, report.Passed)
	assert.Equal(t, 0, report.ErrorCount)
}

func TestRepeatedPhrase(t *testing.T) {
	phrase, ok := repeatedPhrase("Verantwortlich für Verantwortlich für Budgets")
	assert.True(t, ok)
	assert.Equal(t, "verantwortlich für", phrase)

	_, ok = repeatedPhrase("Leitete das Team und das Budget")
	assert.False(t, ok)
}

func TestContentTokens(t *testing.T) {
	total, unique := contentTokens([]string{"Optimierte Prozesse durch Automatisierung", "Optimierte Prozesse im Lager"})
	assert.Equal(t, 6, total)
	assert.Equal(t, 4, unique)
}
