// Package skills contains the built-in skill implementations and their
// capability-table bindings.
package skills

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/koopa0/policy-agent/internal/policy"
	"github.com/koopa0/policy-agent/internal/skill"
)

// Bind names for the built-in skills. Manifests reference these via their
// folder name or an explicit implementation key.
const (
	PolicyIngestName = "policy-ingest"
	PolicyQAName     = "policy-qa"
)

// supportedExtensions are the spreadsheet types the file-based skills accept.
var supportedExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
}

// Ingestor is the pipeline contract the ingest skill depends on.
type Ingestor interface {
	Ingest(ctx context.Context, data []byte, documentName string) (policy.Summary, error)
}

// PolicyIngest ingests a policy spreadsheet into the chunk store.
// Stateless: a fresh instance is constructed per invocation and all durable
// state lives behind the injected pipeline.
type PolicyIngest struct {
	ingestor Ingestor
}

// NewPolicyIngest creates the ingest skill.
func NewPolicyIngest(ingestor Ingestor) *PolicyIngest {
	return &PolicyIngest{ingestor: ingestor}
}

// Run decodes the uploaded spreadsheet and runs the ingestion pipeline.
// User-input problems (missing file, unsupported extension, invalid base64)
// come back as an unsuccessful Summary so the caller always gets a response;
// capability failures propagate as errors.
func (s *PolicyIngest) Run(ctx context.Context, payload skill.Payload) (any, error) {
	data, summary := decodeUpload(payload)
	if !summary.Success {
		return summary, nil
	}

	return s.ingestor.Ingest(ctx, data, payload.FileName)
}

// decodeUpload validates and decodes the file envelope shared by the
// file-based skills.
func decodeUpload(payload skill.Payload) ([]byte, policy.Summary) {
	if payload.FileName == "" || payload.Base64File == "" {
		return nil, policy.Summary{Message: "An uploaded spreadsheet is required."}
	}

	ext := strings.ToLower(filepath.Ext(payload.FileName))
	if !supportedExtensions[ext] {
		return nil, policy.Summary{Message: fmt.Sprintf("Unsupported file extension %q; expected .xlsx or .xlsm.", ext)}
	}

	data, err := base64.StdEncoding.DecodeString(payload.Base64File)
	if err != nil {
		return nil, policy.Summary{Message: "File content is not valid base64."}
	}

	return data, policy.Summary{Success: true}
}
