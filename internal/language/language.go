package language

import (
	"strings"

	"golang.org/x/text/language"
)

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string   // Human-readable name
	voice   string   // espeak-ng voice for the bare language
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "", "English", "en", []string{"english"}},
	{"es", "spa", "", "Spanish", "es", []string{"spanish", "español", "espanol"}},
	{"fr", "fra", "fre", "French", "fr", []string{"french"}},
	{"de", "deu", "ger", "German", "de", []string{"german"}},
	{"it", "ita", "", "Italian", "it", []string{"italian"}},
	{"pt", "por", "", "Portuguese", "pt", []string{"portuguese"}},
	{"ja", "jpn", "", "Japanese", "ja", []string{"japanese"}},
	{"ko", "kor", "", "Korean", "ko", []string{"korean"}},
	{"zh", "zho", "chi", "Chinese", "cmn", []string{"chinese"}},
	{"ru", "rus", "", "Russian", "ru", []string{"russian"}},
	{"ar", "ara", "", "Arabic", "ar", []string{"arabic"}},
	{"hi", "hin", "", "Hindi", "hi", []string{"hindi"}},
	{"nl", "nld", "dut", "Dutch", "nl", []string{"dutch"}},
	{"pl", "pol", "", "Polish", "pl", []string{"polish"}},
	{"sv", "swe", "", "Swedish", "sv", []string{"swedish"}},
	{"da", "dan", "", "Danish", "da", []string{"danish"}},
	{"no", "nor", "", "Norwegian", "nb", []string{"norwegian"}},
	{"fi", "fin", "", "Finnish", "fi", []string{"finnish"}},
}

// Regional espeak-ng voices keyed by lowercase BCP 47 tag.
var regionalVoices = map[string]string{
	"en-us":  "en-us",
	"en-gb":  "en-gb",
	"es-419": "es-419",
	"es-mx":  "es-419",
	"es-ar":  "es-419",
	"pt-br":  "pt-br",
	"pt-pt":  "pt",
	"fr-be":  "fr-be",
	"fr-ch":  "fr-ch",
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// Normalize returns the canonical BCP 47 form of code ("EN_us" -> "en-US",
// "spa" -> "es", "german" -> "de"). Unparseable input is returned lowercased
// and trimmed so validation can report it verbatim.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return strings.ToLower(code)
	}
	return tag.String()
}

// Tag parses code into a language.Tag, returning language.Und when the code is
// not recognised.
func Tag(code string) language.Tag {
	normalized := Normalize(code)
	if normalized == "" {
		return language.Und
	}
	tag, err := language.Parse(normalized)
	if err != nil {
		return language.Und
	}
	return tag
}

// Voice maps a language code onto the espeak-ng voice name used with -v.
// Regional variants with a dedicated voice keep it; everything else falls back
// to the base language. Unknown languages pass through as their base code.
func Voice(code string) string {
	tag := Tag(code)
	if tag == language.Und {
		return "en"
	}
	if voice, ok := regionalVoices[strings.ToLower(tag.String())]; ok {
		return voice
	}
	base, _ := tag.Base()
	if e := lookup(base.String()); e != nil {
		return e.voice
	}
	return base.String()
}

// ToISO2 converts any recognized language code or word to ISO 639-1 (2-letter).
// Returns empty string for unrecognized input.
func ToISO2(code string) string {
	if e := lookup(code); e != nil {
		return e.code2
	}
	tag := Tag(code)
	if tag == language.Und {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}
	if iso := base.String(); len(iso) == 2 {
		return iso
	}
	return ""
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(ToISO2(code)); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}
