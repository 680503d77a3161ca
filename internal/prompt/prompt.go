// Package prompt renders the fixed instruction templates sent to the
// completion service.
package prompt

import "fmt"

// ID names one of the fixed templates.
type ID int

const (
	Classification ID = iota
	SalesExtraction
	GeneralExtraction
)

func (id ID) String() string {
	switch id {
	case Classification:
		return "classification"
	case SalesExtraction:
		return "sales_extraction"
	case GeneralExtraction:
		return "general_extraction"
	default:
		return fmt.Sprintf("prompt(%d)", int(id))
	}
}

// Build substitutes transcript verbatim into the template named by id.
// The transcript is passed as a Sprintf argument, so verbs or braces inside it
// are never interpreted.
func Build(id ID, transcript string) string {
	switch id {
	case Classification:
		return fmt.Sprintf(classificationTemplate, transcript)
	case SalesExtraction:
		return fmt.Sprintf(salesTemplate, transcript)
	case GeneralExtraction:
		return fmt.Sprintf(generalTemplate, transcript)
	default:
		panic(fmt.Sprintf("prompt: unknown template %d", int(id)))
	}
}
