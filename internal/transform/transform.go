package transform

import (
	"encoding/json"
	"errors"

	"github.com/buger/jsonparser"
)

// Theme colors by alert status.
const (
	colorOpen          = "D7000C"
	colorClosed        = "12924F"
	colorInformational = "12924F" // same hex as closed in the upstream card set
	colorOther         = "0078D7"
)

// errNotJSON is returned when the alert bytes are not a JSON document.
var errNotJSON = errors.New("transform: alert is not valid JSON")

// CreateCard builds a MessageCard from an alert document. Missing or
// oddly-typed fields never fail the transformation; they are simply left out
// of the card. The only error case is alert not being valid JSON at all.
func CreateCard(alert []byte) (*Card, error) {
	if !json.Valid(alert) {
		return nil, errNotJSON
	}

	card := newCard()
	section := &card.Sections[0]

	// Status decides the title, theme color, and subtitle source.
	if status, ok := stringField(alert, "status"); ok {
		switch status {
		case "OPEN":
			card.Title = "New Alert Triggered"
			card.ThemeColor = colorOpen
			if created, ok := stringField(alert, "created"); ok {
				section.ActivitySubtitle = created
			}
		case "CLOSED":
			card.Title = "Alert Closed"
			card.ThemeColor = colorClosed
			// Checks "updated" but copies "resolved". Kept as-is: consumers
			// rely on seeing the resolved timestamp here.
			if _, ok := stringField(alert, "updated"); ok {
				resolved, _ := stringField(alert, "resolved")
				section.ActivitySubtitle = resolved
			}
		case "INFORMATIONAL":
			card.Title = "Informational Alert"
			card.ThemeColor = colorInformational
			if created, ok := stringField(alert, "created"); ok {
				section.ActivitySubtitle = created
			}
		default:
			card.Title = status
			card.ThemeColor = colorOther
			if created, ok := stringField(alert, "created"); ok {
				section.ActivitySubtitle = created
			}
		}
	}

	// The event code decides the section title and the card summary. The
	// title is embedded in JSON-string form, matching the upstream renderer.
	if event, ok := stringField(alert, "eventTypeName"); ok {
		if desc, known := eventDescriptions[event]; known {
			section.ActivityTitle = desc
			card.Summary = "[" + jsonString(card.Title) + "]: " + desc
		} else {
			section.ActivityTitle = event
			card.Summary = "[" + jsonString(card.Title) + "]: Unknown event type"
		}
	} else {
		// Every event should carry an eventTypeName; a card is still
		// produced when one does not.
		section.ActivityTitle = "Missing eventTypeName"
		card.Summary = "Error, unknown eventTypeName"
	}

	// Facts, in fixed order. Only the first of the replica set, cluster, and
	// group identifiers is emitted.
	if v, ok := stringField(alert, "replicaSetName"); ok {
		section.addFact("Replicaset", v)
	} else if v, ok := stringField(alert, "clusterName"); ok {
		section.addFact("Cluster Name", v)
	} else if v, ok := stringField(alert, "groupId"); ok {
		section.addFact("Group", v)
	}
	if v, ok := stringField(alert, "hostnameAndPort"); ok {
		section.addFact("Server", v)
	}
	if v, ok := stringField(alert, "sourceTypeName"); ok {
		section.addFact("Source Type", v)
	}
	if v, ok := stringField(alert, "metricName"); ok {
		section.addFact("Metric Name", v)
	}
	if v, ok := stringField(alert, "currentValue", "number"); ok {
		section.addFact("Metric Value", v)
	}
	if v, ok := stringField(alert, "currentValue", "units"); ok {
		section.addFact("Metric Unit", v)
	}
	if v, ok := stringField(alert, "typeName"); ok {
		section.addFact("Type", v)
	}

	return card, nil
}

// stringField returns the value at the given key path when it exists and is
// a JSON string. Absent fields and non-string values both report false.
func stringField(alert []byte, keys ...string) (string, bool) {
	v, dt, _, err := jsonparser.Get(alert, keys...)
	if err != nil || dt != jsonparser.String {
		return "", false
	}
	s, err := jsonparser.ParseString(v)
	if err != nil {
		return "", false
	}
	return s, true
}
