// Package extract turns free-form shipment emails into structured payloads
// via an external model endpoint. The engine treats the extractor as an
// untrusted upstream: everything it returns goes through validation, and
// its confidence score is carried along untouched.
package extract

import (
	"context"

	"github.com/swiftfreight/quote-engine/internal/models"
)

type Extractor interface {
	Extract(ctx context.Context, emailBody string) (models.RawShipment, models.ExtractionConfidence, error)
}
