package models

// CompiledWorkflow bundles the four generated source artifacts. Either all
// four are produced or none are; a partially compiled workflow is never
// returned.
type CompiledWorkflow struct {
	WorkflowCode string              `json:"workflow_code"`
	ActivityCode string              `json:"activity_code"`
	WorkerCode   string              `json:"worker_code"`
	TestCode     string              `json:"test_code"`
	Metadata     CompilationMetadata `json:"metadata"`
}

// CompilationMetadata summarizes a compile run for the editor and the
// runtime bootstrap generator.
type CompilationMetadata struct {
	WorkflowName        string   `json:"workflow_name"`
	PackageName         string   `json:"package_name"`
	Activities          []string `json:"activities"`
	Signals             []string `json:"signals"`
	Queries             []string `json:"queries"`
	EstimatedComplexity int      `json:"estimated_complexity"`
}
