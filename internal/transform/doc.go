// Package transform builds Microsoft Teams MessageCard documents from
// inbound alert webhooks. The alert payload is treated as a loose JSON
// document: a field only contributes to the card when it exists and is a
// JSON string, so alerts of any shape produce a card. Known event codes are
// mapped to human-readable descriptions via a static table.
package transform
