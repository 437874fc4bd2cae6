package transform

import "encoding/json"

// activityImageURL is the logo shown on every card.
const activityImageURL = "https://company-30077.frontify.com/api/screen/download/eyJpZCI6MzQwMzI2NCwidmVyc2lvbiI6IjIwMTktMDgtMDIgMTk6Mjg6MDYifQ:frontify:DkJTntON9g0YByA8Q_M4vJX_XxO7je1rn7PJN6RJ_TI/?download&title_as_filename&track"

// Fact is one name/value row in a card's detail section. Row order is
// significant and duplicate names are kept.
type Fact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Section is the single detail section of a card.
type Section struct {
	ActivityTitle    string `json:"activityTitle"`
	ActivitySubtitle string `json:"activitySubtitle"`
	ActivityImage    string `json:"activityImage"`
	Facts            []Fact `json:"facts"`
}

// Card is a Microsoft Teams MessageCard document. Cards are built fresh per
// alert and never mutated after CreateCard returns.
type Card struct {
	Type       string    `json:"@type"`
	Context    string    `json:"@context"`
	Summary    string    `json:"summary"`
	ThemeColor string    `json:"themeColor"`
	Title      string    `json:"title"`
	Sections   []Section `json:"sections"`
}

// newCard returns the template every alert card starts from.
func newCard() *Card {
	return &Card{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Sections: []Section{{
			ActivityImage: activityImageURL,
			Facts:         []Fact{},
		}},
	}
}

// addFact appends one row. Values are JSON-string encoded (quotes included),
// the form the upstream renderer emits for fact values.
func (s *Section) addFact(name, value string) {
	s.Facts = append(s.Facts, Fact{Name: name, Value: jsonString(value)})
}

// jsonString renders s as a JSON string literal, quotes included.
func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
