package skills

import (
	"context"

	"github.com/koopa0/policy-agent/internal/policy"
	"github.com/koopa0/policy-agent/internal/skill"
)

// Answerer is the pipeline contract the Q&A skill depends on.
type Answerer interface {
	Answer(ctx context.Context, data []byte, fileName string) (policy.Answered, error)
}

// PolicyQA answers a spreadsheet of questions from the policy store.
type PolicyQA struct {
	answerer Answerer
}

// NewPolicyQA creates the Q&A skill.
func NewPolicyQA(answerer Answerer) *PolicyQA {
	return &PolicyQA{answerer: answerer}
}

// Run decodes the uploaded question spreadsheet and runs the answering
// pipeline. User-input problems come back as an unsuccessful Summary;
// capability failures propagate.
func (s *PolicyQA) Run(ctx context.Context, payload skill.Payload) (any, error) {
	data, summary := decodeUpload(payload)
	if !summary.Success {
		return summary, nil
	}

	return s.answerer.Answer(ctx, data, payload.FileName)
}
