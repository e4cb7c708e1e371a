package pdf

import (
	"context"
	"io"
)

// Provider renders a rental statement as a PDF document.
type Provider interface {
	GenerateStatement(ctx context.Context, data StatementData) (io.Reader, error)
}
