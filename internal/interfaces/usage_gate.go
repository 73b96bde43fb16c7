package interfaces

import "context"

// UsageDecision is the gate's answer to a pre-call check.
type UsageDecision struct {
	Allowed bool
	Reason  string
}

// Usage records consumption from one metered remote call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	OCRPages     int
}

// UsageGate is consulted before every metered remote call (OCR submission,
// embedding request, LLM completion). A denial aborts the current pipeline
// stage without partial persistence of that stage's output.
type UsageGate interface {
	CheckAllowed(ctx context.Context) (*UsageDecision, error)
	Record(ctx context.Context, usage Usage) error
}
