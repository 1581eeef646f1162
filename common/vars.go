package common

// Version is set at build time with -ldflags "-X github.com/ruteri/pinning-aggregation/common.Version=..."
var Version = "dev"

// PackageName is the metrics namespace and default log service name.
const PackageName = "pinning_aggregation"
