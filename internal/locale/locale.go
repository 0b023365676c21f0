// Package locale holds the read-only bilingual string tables of the assessment engine and
// the parsing helpers that map localized input back to canonical identifiers.
//
// Tables are built once at package initialization and never mutated afterwards, so every
// function here is safe for concurrent use.
package locale

import (
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/cardio-risk-mcp-server/internal/domain"
)

// DefaultLanguage is used when a request does not name a language.
const DefaultLanguage = domain.LANG_ZH

var (
	supportedTags  = []language.Tag{language.Chinese, language.English}
	supportedLangs = []domain.Language{domain.LANG_ZH, domain.LANG_EN}
	matcher        = language.NewMatcher(supportedTags)
)

// text is a ZH/EN string pair.
type text struct {
	zh string
	en string
}

func (t text) in(lang domain.Language) string {
	if lang == domain.LANG_EN {
		return t.en
	}
	return t.zh
}

// ParseLanguage resolves a language name or BCP 47 tag ("zh-CN", "en-US", "中文",
// "English") to a supported language. Empty input yields DefaultLanguage.
func ParseLanguage(s string) (domain.Language, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		return DefaultLanguage, nil
	case "中文", "chinese":
		return domain.LANG_ZH, nil
	case "english":
		return domain.LANG_EN, nil
	}
	tags, _, err := language.ParseAcceptLanguage(s)
	if err != nil || len(tags) == 0 {
		return "", domain.ErrUnknownLanguage
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return "", domain.ErrUnknownLanguage
	}
	// The matcher falls back to English for unrelated languages; only accept a match
	// whose base language was actually requested.
	matched, _ := supportedTags[idx].Base()
	for _, tag := range tags {
		if base, _ := tag.Base(); base == matched {
			return supportedLangs[idx], nil
		}
	}
	return "", domain.ErrUnknownLanguage
}

var (
	spaceRun      = regexp.MustCompile(`\s+`)
	parenthetical = regexp.MustCompile(`\s*\([^)]*\)`)
)

// Fold normalizes a label for lookup: NFKC (full-width to half-width), lower case,
// collapsed whitespace and no trailing question mark.
func Fold(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(strings.TrimSpace(s))
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.TrimRight(s, "?")
}

// stripParenthetical removes "(...)" groups, used to match "LDL-C (mg/dL)" as "LDL-C".
func stripParenthetical(s string) string {
	return strings.TrimSpace(parenthetical.ReplaceAllString(s, ""))
}

var (
	yesWords = map[string]bool{"是": true, "有": true, "yes": true, "y": true, "true": true, "1": true}
	noWords  = map[string]bool{"否": true, "无": true, "没有": true, "no": true, "n": true, "false": true, "0": true}
)

// ParseYesNo interprets a localized yes/no answer. ok is false for unrecognized text.
// Empty text is a "no".
func ParseYesNo(s string) (value bool, ok bool) {
	f := Fold(s)
	if f == "" {
		return false, true
	}
	if yesWords[f] {
		return true, true
	}
	if noWords[f] {
		return false, true
	}
	return false, false
}

// YesNo returns the localized answer words.
func YesNo(v bool, lang domain.Language) string {
	if v {
		return text{"是", "Yes"}.in(lang)
	}
	return text{"否", "No"}.in(lang)
}

// ParseSex interprets 男/女, Male/Female or M/F. Empty input is reported as not ok.
func ParseSex(s string) (domain.Sex, bool) {
	switch Fold(s) {
	case "男", "male", "m", "man":
		return domain.SEX_MALE, true
	case "女", "female", "f", "woman":
		return domain.SEX_FEMALE, true
	}
	if sx := domain.Sex(strings.ToUpper(strings.TrimSpace(s))); sx.IsValid() {
		return sx, true
	}
	return "", false
}

// SexLabel returns the localized sex.
func SexLabel(s domain.Sex, lang domain.Language) string {
	if s == domain.SEX_FEMALE {
		return text{"女", "Female"}.in(lang)
	}
	return text{"男", "Male"}.in(lang)
}
