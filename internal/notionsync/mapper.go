package notionsync

import (
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/fincopilot/internal/domain"
)

// Property names of the mirror database.
const (
	PropName          = "Name"
	PropTransactionID = "Transaction ID"
	PropDate          = "Date"
	PropType          = "Type"
	PropCategory      = "Category"
	PropSubcategory   = "Subcategory"
	PropAmount        = "Amount"
	PropCurrency      = "Currency"
	PropSource        = "Source"
	PropRecordedAt    = "Recorded At"
)

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: s},
		},
	}
}

func dateOf(t time.Time) *notionapi.DateObject {
	d := notionapi.Date(t)
	return &notionapi.DateObject{Start: &d}
}

// RecordToProperties maps a record onto the mirror database columns.
// The page title is the description, or the category when the
// description is empty.
func RecordToProperties(rec domain.TransactionRecord) notionapi.Properties {
	title := rec.Description
	if title == "" {
		title = rec.Category
	}
	props := notionapi.Properties{
		PropName:          notionapi.TitleProperty{Title: richText(title)},
		PropTransactionID: notionapi.RichTextProperty{RichText: richText(rec.ID)},
		PropType:          notionapi.SelectProperty{Select: notionapi.Option{Name: string(rec.Kind)}},
		PropAmount:        notionapi.NumberProperty{Number: rec.Amount},
	}

	if !rec.OccurredOn.IsZero() {
		props[PropDate] = notionapi.DateProperty{Date: dateOf(rec.OccurredOn.In(time.UTC))}
	}
	// Select options may not be empty.
	if rec.Category != "" {
		props[PropCategory] = notionapi.SelectProperty{Select: notionapi.Option{Name: rec.Category}}
	}
	if rec.Subcategory != "" {
		props[PropSubcategory] = notionapi.SelectProperty{Select: notionapi.Option{Name: rec.Subcategory}}
	}
	if rec.Currency != "" {
		props[PropCurrency] = notionapi.SelectProperty{Select: notionapi.Option{Name: rec.Currency}}
	}
	if rec.Source != "" {
		props[PropSource] = notionapi.SelectProperty{Select: notionapi.Option{Name: rec.Source}}
	}
	if !rec.RecordedAt.IsZero() {
		props[PropRecordedAt] = notionapi.DateProperty{Date: dateOf(rec.RecordedAt.UTC())}
	}
	return props
}

// extractTransactionID returns the record id a page mirrors, or "" when the
// page was not written by the mirror.
func extractTransactionID(page notionapi.Page) string {
	prop, ok := page.Properties[PropTransactionID].(*notionapi.RichTextProperty)
	if !ok || len(prop.RichText) == 0 {
		return ""
	}
	if prop.RichText[0].PlainText != "" {
		return prop.RichText[0].PlainText
	}
	if prop.RichText[0].Text != nil {
		return prop.RichText[0].Text.Content
	}
	return ""
}

// extractDate returns the page's Date property as YYYY-MM-DD, or "".
func extractDate(page notionapi.Page) string {
	prop, ok := page.Properties[PropDate].(*notionapi.DateProperty)
	if !ok || prop.Date == nil || prop.Date.Start == nil {
		return ""
	}
	return time.Time(*prop.Date.Start).Format(time.DateOnly)
}
