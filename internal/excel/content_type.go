package excel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/example/studyapp/pkg/models"
)

// ContentType selects how a sheet's columns map onto sessions and expressions.
// It is chosen once per import, never inferred from row contents.
type ContentType string

const (
	ContentDaily          ContentType = "daily"
	ContentNews           ContentType = "news"
	ContentConversational ContentType = "conversational"
	ContentShadowing      ContentType = "shadowing"
	ContentEnglishOrder   ContentType = "english-order"
)

// ContentTypes lists every supported content type
var ContentTypes = []ContentType{ContentDaily, ContentNews, ContentConversational, ContentShadowing, ContentEnglishOrder}

// ParseContentType validates a content type name
func ParseContentType(s string) (ContentType, error) {
	t := ContentType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ContentTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown content type %q", ErrInvalidImport, s)
}

// FieldMapping holds the column letter of each field. Empty means the sheet
// has no such column.
type FieldMapping struct {
	SessionColumn        string
	TitleColumn          string
	PatternEnglishColumn string
	PatternKoreanColumn  string
	DescriptionColumn    string
	EnglishColumn        string
	KoreanColumn         string
	AudioColumn          string
	PatternAudioColumn   string
	ExtraColumn          string // question, conversational number, ...
	ImagesColumn         string // comma or newline separated file names
	StatusColumn         string
}

type contentRules struct {
	mapping FieldMapping
	// metadata key for ExtraColumn
	extraKey string
	// store ExtraColumn as an integer
	extraNumeric bool
}

var rules = map[ContentType]contentRules{
	ContentDaily: {
		mapping: FieldMapping{
			SessionColumn:        "A",
			TitleColumn:          "B",
			PatternEnglishColumn: "C",
			PatternKoreanColumn:  "D",
			DescriptionColumn:    "E",
			EnglishColumn:        "F",
			KoreanColumn:         "G",
			AudioColumn:          "H",
			StatusColumn:         "I",
		},
	},
	ContentNews: {
		mapping: FieldMapping{
			SessionColumn:      "A",
			TitleColumn:        "B",
			EnglishColumn:      "C",
			KoreanColumn:       "D",
			AudioColumn:        "E",
			PatternAudioColumn: "F",
			StatusColumn:       "G",
			ImagesColumn:       "H",
		},
	},
	ContentConversational: {
		mapping: FieldMapping{
			SessionColumn:      "A",
			TitleColumn:        "B",
			ExtraColumn:        "C",
			EnglishColumn:      "D",
			KoreanColumn:       "E",
			AudioColumn:        "F",
			PatternAudioColumn: "G",
			StatusColumn:       "H",
		},
		extraKey:     "conversational_num",
		extraNumeric: true,
	},
	ContentShadowing: {
		mapping: FieldMapping{
			SessionColumn: "A",
			TitleColumn:   "B",
			EnglishColumn: "C",
			KoreanColumn:  "D",
			AudioColumn:   "E",
			StatusColumn:  "F",
		},
	},
	ContentEnglishOrder: {
		mapping: FieldMapping{
			SessionColumn:      "A",
			TitleColumn:        "B",
			ExtraColumn:        "C",
			EnglishColumn:      "D",
			KoreanColumn:       "E",
			AudioColumn:        "F",
			PatternAudioColumn: "G",
			StatusColumn:       "H",
		},
		extraKey: "question",
	},
}

// Mapping returns the column layout of the content type
func (t ContentType) Mapping() FieldMapping {
	return rules[t].mapping
}

// applySession fills the session-level fields from the first row of a session
func (t ContentType) applySession(session *models.Session, r record, storagePath func(string) string) {
	m := rules[t].mapping
	session.Title = r.get(m.TitleColumn)
	session.PatternEnglish = optional(r.get(m.PatternEnglishColumn))
	session.PatternKorean = optional(r.get(m.PatternKoreanColumn))
	session.Description = optional(r.get(m.DescriptionColumn))

	meta := models.Metadata{"content_type": string(t)}
	if p := r.get(m.PatternAudioColumn); p != "" {
		meta["pattern_audio_url"] = storagePath(p)
	}
	if images := splitList(r.get(m.ImagesColumn)); len(images) > 0 {
		for i := range images {
			images[i] = storagePath(images[i])
		}
		meta["images"] = images
	}
	if key := rules[t].extraKey; key != "" {
		if v := r.get(m.ExtraColumn); v != "" {
			if n, err := strconv.Atoi(v); err == nil && rules[t].extraNumeric {
				meta[key] = n
			} else {
				meta[key] = v
			}
		}
	}
	session.Metadata = meta

	if session.Title == "" {
		if session.PatternEnglish != nil {
			session.Title = *session.PatternEnglish
		} else {
			session.Title = fmt.Sprintf("Session %d", session.SessionNumber)
		}
	}
}

func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
