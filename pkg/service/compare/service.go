package compare

import (
	"context"

	"go.keploy.io/comparator/pkg/models"
)

// Formats with a built-in comparator.
const (
	FormatText  = "text"
	FormatTable = "table"
	FormatXML   = "xml"
	FormatJSON  = "json"
)

type Service interface {
	Compare(ctx context.Context, req Request) (*models.Result, error)
	Batch(ctx context.Context, reqs []Request) ([]JobResult, error)
	Formats() []string
}

// Comparator compares two materialized documents of one format. It must be
// safe for concurrent use.
type Comparator interface {
	Compare(expected, actual string, params *models.Parameters) (*models.Result, error)
}

// Decoder turns transport-encoded content into text.
type Decoder interface {
	Decode(content []byte) (string, error)
}
