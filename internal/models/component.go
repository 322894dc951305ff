package models

// Component names double as the checkout directory names under the build
// directory, so they must stay filesystem-safe.
const (
	ComponentEtcd      = "etcd-cpp-apiv3"
	ComponentUCX       = "ucx"
	ComponentNIXL      = "nixl"
	ComponentNIXLBench = "nixlbench"
)

// Component describes one source-built dependency in the pipeline.
type Component struct {
	Name     string
	RepoURL  string
	Branch   string
	Required bool // a hard failure in a required component aborts the run
}
