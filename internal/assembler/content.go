package assembler

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jonathan/cv-synth/internal/dates"
	"github.com/jonathan/cv-synth/internal/llm"
	"github.com/jonathan/cv-synth/internal/prompts"
	"github.com/jonathan/cv-synth/internal/types"
)

// content is the JSON document requested from the model
type content struct {
	Summary   string `json:"summary"`
	Education []struct {
		Institution string `json:"institution"`
		Degree      string `json:"degree"`
	} `json:"education"`
	Jobs []struct {
		Achievements []string `json:"achievements"`
	} `json:"jobs"`
	Skills []string `json:"skills"`
}

// generate asks the model for summary, education names, achievements and
// skills matching the skeleton
func (a *Assembler) generate(ctx context.Context, doc *types.Document, occupation *types.Occupation,
	tier llm.ModelTier, feedback []string) (*content, error) {
	prompt, err := a.buildPrompt(doc, occupation, feedback)
	if err != nil {
		return nil, err
	}

	raw, err := a.client.GenerateJSON(ctx, prompt, tier)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CV content: %w", err)
	}

	var c content
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(raw)), &c); err != nil {
		return nil, &GenerationError{Message: "response is not valid JSON", Cause: err}
	}
	if len(c.Jobs) != len(doc.Jobs) {
		return nil, &GenerationError{Message: fmt.Sprintf("expected %d jobs, got %d", len(doc.Jobs), len(c.Jobs))}
	}
	return &c, nil
}

func (a *Assembler) buildPrompt(doc *types.Document, occupation *types.Occupation, feedback []string) (string, error) {
	var edu strings.Builder
	for i, e := range doc.Education {
		fmt.Fprintf(&edu, "%d. %s to %s\n", i+1, e.Start, endLabel(e.End))
	}

	var jobs strings.Builder
	for i, j := range doc.Jobs {
		fmt.Fprintf(&jobs, "%d. %s at %s (%s, %s to %s), level %s\n",
			i+1, j.Position, j.Company, j.Industry, j.Start, endLabel(j.End), j.Level)
	}

	data := map[string]string{
		"LanguageName":    languageName(doc.Language),
		"FirstName":       doc.FirstName,
		"LastName":        doc.LastName,
		"Age":             strconv.Itoa(doc.Age),
		"Occupation":      doc.Occupation,
		"CareerLevel":     string(doc.CareerLevel),
		"ExperienceYears": strconv.Itoa(doc.ExperienceYears),
		"Canton":          doc.Canton,
		"Education":       strings.TrimRight(edu.String(), "\n"),
		"Jobs":            strings.TrimRight(jobs.String(), "\n"),
		"BulletsPerJob":   strconv.Itoa(a.opts.BulletsPerJob),
	}

	prompt, err := prompts.Render(prompts.GenerationFile, "cv-content", data)
	if err != nil {
		return "", err
	}
	if occupation != nil {
		var ref strings.Builder
		if occupation.Description != "" {
			fmt.Fprintf(&ref, "\n\nOccupation description: %s", truncateRunes(occupation.Description, 500))
		}
		if len(occupation.Activities) > 0 {
			fmt.Fprintf(&ref, "\nTypical activities: %s", strings.Join(occupation.Activities, "; "))
		}
		prompt += ref.String()
	}

	prompt = a.metrics.EnhancePrompt(prompt, doc.CareerLevel)

	if len(feedback) > 0 {
		retry, err := prompts.Render(prompts.GenerationFile, "retry-feedback", map[string]string{
			"Reasons": "- " + strings.Join(feedback, "\n- "),
		})
		if err != nil {
			return "", err
		}
		prompt += retry
	}
	return prompt, nil
}

// apply copies generated text onto the skeleton, dropping implausible metric
// statements and falling back to templates for missing pieces
func (a *Assembler) apply(doc *types.Document, c *content, occupation *types.Occupation) {
	doc.Summary = cleanText(c.Summary)
	if doc.Summary == "" {
		doc.Summary = fallbackSummary(doc)
	}

	for i := range doc.Education {
		e := &doc.Education[i]
		if i < len(c.Education) {
			e.Institution = cleanText(c.Education[i].Institution)
			e.Degree = cleanText(c.Education[i].Degree)
		}
		if e.Institution == "" {
			e.Institution = vocationalSchool(doc.Language)
		}
		if e.Degree == "" {
			e.Degree = doc.Occupation
		}
		if e.Degree == "" {
			e.Degree = e.Institution
		}
	}

	for i := range doc.Jobs {
		job := &doc.Jobs[i]
		bullets := make([]string, 0, len(c.Jobs[i].Achievements))
		for _, b := range c.Jobs[i].Achievements {
			if b = capitalize(cleanText(b)); b != "" {
				bullets = append(bullets, b)
			}
		}

		kept, result := a.metrics.FilterBullets(bullets, job.Level)
		if result.Invalid > 0 {
			a.logger.Debug("dropped implausible achievements",
				zap.Int("job", i+1),
				zap.Int("dropped", result.Invalid),
				zap.Strings("issues", result.Issues),
			)
		}
		job.Achievements = kept
	}

	skills := make([]string, 0, len(c.Skills))
	for _, s := range c.Skills {
		if s = cleanText(s); s != "" {
			skills = append(skills, s)
		}
	}
	if len(skills) == 0 && occupation != nil {
		skills = append(skills, occupation.Skills...)
	}
	doc.Skills = skills
}

func fallbackSummary(doc *types.Document) string {
	text, err := prompts.Render(prompts.GenerationFile, prompts.FallbackSummaryKey(doc.Language), map[string]string{
		"Occupation":      doc.Occupation,
		"ExperienceYears": strconv.Itoa(doc.ExperienceYears),
		"CareerLevel":     string(doc.CareerLevel),
	})
	if err != nil {
		return doc.Occupation
	}
	return strings.TrimSpace(text)
}

func vocationalSchool(language string) string {
	switch language {
	case "fr":
		return "École professionnelle"
	case "it":
		return "Scuola professionale"
	case "en":
		return "Vocational school"
	default:
		return "Berufsfachschule"
	}
}

// PositionTitle derives a job title from the occupation and the job's level.
// Junior and mid positions carry the plain title; senior and lead positions
// get a prefix unless the occupation already implies one.
func PositionTitle(occupation string, level types.CareerLevel, language string, rnd *rand.Rand) string {
	base := strings.TrimSpace(occupation)
	if base == "" {
		base = "Mitarbeiter"
	}
	lower := strings.ToLower(base)

	switch level {
	case types.LevelSenior:
		if strings.Contains(lower, "senior") || strings.Contains(lower, "lead") || strings.Contains(lower, "leiter") {
			return base
		}
		return "Senior " + base
	case types.LevelLead:
		if strings.Contains(lower, "leiter") || strings.Contains(lower, "lead") || strings.Contains(lower, "manager") {
			return base
		}
		base = strings.TrimSpace(strings.TrimPrefix(base, "Senior "))
		prefix := "Lead"
		if language == "de" || language == "" {
			prefix = "Leiter"
			if rnd != nil && rnd.IntN(2) == 0 {
				prefix = "Lead"
			}
		}
		return prefix + " " + base
	default:
		return base
	}
}

var emailDomains = []string{"bluewin.ch", "gmail.com", "sunrise.ch", "gmx.ch", "outlook.com"}

var transliteration = strings.NewReplacer(
	"ä", "ae", "ö", "oe", "ü", "ue", "é", "e", "è", "e", "ê", "e", "à", "a", "â", "a",
	"ç", "c", "ô", "o", "î", "i", "ï", "i", "ù", "u", "û", "u", "ß", "ss",
)

// EmailAddress builds a plausible private address from the name
func EmailAddress(first, last string, rnd *rand.Rand) string {
	local := strings.Trim(emailPart(first)+"."+emailPart(last), ".")
	if local == "" {
		return ""
	}
	domain := emailDomains[0]
	if rnd != nil {
		domain = emailDomains[rnd.IntN(len(emailDomains))]
	}
	return local + "@" + domain
}

func emailPart(s string) string {
	s = transliteration.Replace(strings.ToLower(strings.TrimSpace(s)))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// cleanText strips markdown emphasis and list markers the model sometimes adds
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "-•* ")
	return strings.Join(strings.Fields(s), " ")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if !unicode.IsLower(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func endLabel(end *dates.YearMonth) string {
	if end == nil {
		return "today"
	}
	return end.String()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
