package domain

import (
	"context"
	"errors"
	"io"
)

type Service interface {
	Summarize(ctx context.Context, req SummaryRequest) (Summary, error)
	Generate(ctx context.Context, req SummaryRequest) (GenerateResult, error)
	Latest(ctx context.Context) (Report, error)
}

const (
	DefaultWindowDays   = 7
	DefaultTopCustomers = 5
	MaxWindowDays       = 366
	MaxTopCustomers     = 50
)

type SummaryRequest struct {
	WindowDays   int
	TopCustomers int
}

type GenerateResult struct {
	Report   Report  `json:"report"`
	Summary  Summary `json:"summary"`
	FilePath string  `json:"file_path,omitempty"`
}

// Renderer writes a summary as a document.
type Renderer interface {
	Render(ctx context.Context, summary Summary) (io.Reader, error)
}

var (
	ErrInvalidWindow = errors.New("invalid_window")
	ErrNotFound      = errors.New("not_found")
)
