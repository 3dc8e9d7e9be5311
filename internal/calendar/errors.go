package calendar

import (
	"github.com/teemow/leadcal/internal/google"
)

func classify(op string, err error) error {
	return google.ClassifyAPIError(op, err)
}
