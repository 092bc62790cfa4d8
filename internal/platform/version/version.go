package version

import (
	"fmt"
	"runtime"
)

// Name is reported in health and index responses.
const Name = "stomp-fixed-income"

// Build information, injected via ldflags at build time
var (
	Version   = "1.0.0"
	Commit    = "unknown"
	BuildTime = "unknown"
)

type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

func Get() Info {
	return Info{
		Name:      Name,
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// String renders the name/version pair used in the STOMP server header.
func (i Info) String() string {
	return fmt.Sprintf("%s/%s", i.Name, i.Version)
}
