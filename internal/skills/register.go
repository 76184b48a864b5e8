package skills

import (
	"github.com/koopa0/policy-agent/internal/skill"
)

// Bind adds the built-in skill factories to the registry's capability table.
// Called once at startup, before the manifest scan.
func Bind(reg *skill.Registry, ingestor Ingestor, answerer Answerer) {
	reg.Bind(PolicyIngestName, func() skill.Skill { return NewPolicyIngest(ingestor) })
	reg.Bind(PolicyQAName, func() skill.Skill { return NewPolicyQA(answerer) })
}
