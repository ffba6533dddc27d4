package application

import (
	"strings"

	"github.com/davarch/deploy-report/internal/domain"
)

const branchConfigKey = "BranchName"

// SourceBranch returns the branch configured on the first action of the
// "source" stage that declares one.
func SourceBranch(def domain.PipelineDefinition) (string, bool) {
	for _, st := range def.Stages {
		if !strings.EqualFold(st.Name, "source") {
			continue
		}
		for _, a := range st.Actions {
			if b := a.Configuration[branchConfigKey]; b != "" {
				return b, true
			}
		}
	}
	return "", false
}

// DeployStageName picks the stage whose deployment status is reported.
// A non-empty override is returned as is.
func DeployStageName(def domain.PipelineDefinition, override, fallback string) string {
	if override != "" {
		return override
	}
	for _, st := range def.Stages {
		for _, a := range st.Actions {
			if strings.EqualFold(a.Category, "deploy") {
				return st.Name
			}
		}
	}
	return fallback
}
