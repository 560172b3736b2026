package steprun

import (
	"log"
	"os/exec"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/sre-norns/gantry/pkg/manifest"
	"golang.org/x/mod/semver"
)

const (
	LabelOS   = "worker.os"
	LabelArch = "worker.arch"

	// Browsers available:
	LabelChromeVersion      = "worker.chrome.version"
	LabelChromeVersionMajor = LabelChromeVersion + ".major"

	// Well-known labels used by workers:
	LabelBuildVersion      = "worker.version"
	LabelWorkerId          = "worker.id"
	LabelWorkerVersionedId = "worker.id.versioned"
)

type WorkerConfig struct {
	systemLabels manifest.Labels `kong:"-"`
	CustomLabels manifest.Labels `help:"Extra labels to identify this instance of the worker"`

	ApiToken         string        `help:"API token to register this worker instance"`
	ApiServerAddress string        `help:"URL address of the API server" default:"http://localhost:8080/"`
	WorkingDirectory string        `help:"Worker directory where suites are executed" default:"./worker" type:"existingdir"`
	Timeout          time.Duration `help:"Maximum duration alloted for each suite run" default:"1m"`

	Headless bool `help:"Run browsers without a window" default:"true"`
}

// GetChromeRuntimeLabels probes the local chrome install and advertises its
// version so suites can require a browser generation
func GetChromeRuntimeLabels() manifest.Labels {
	for _, binary := range []string{"google-chrome", "chromium"} {
		out, err := exec.Command(binary, "--version").CombinedOutput()
		if err != nil {
			continue
		}

		// Output shape: "Google Chrome 126.0.6478.55" / "Chromium 126.0.6478.55"
		fields := strings.Fields(strings.TrimSpace(string(out)))
		if len(fields) == 0 {
			continue
		}

		vstr := fields[len(fields)-1]
		return manifest.Labels{
			LabelChromeVersion:      vstr,
			LabelChromeVersionMajor: semver.Major("v" + vstr)[1:],
		}
	}

	return manifest.Labels{}
}

func GetRuntimeLabels() manifest.Labels {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		log.Print("[ERROR] failed to get Build info")
	}

	return manifest.Labels{
		LabelArch:         runtime.GOARCH,
		LabelOS:           runtime.GOOS,
		LabelBuildVersion: bi.Main.Version,
	}
}

func (c *WorkerConfig) GetEffectiveLabels() manifest.Labels {
	return manifest.MergeLabels(
		c.systemLabels,
		c.CustomLabels,
	)
}

func NewDefaultConfig() WorkerConfig {
	return WorkerConfig{
		systemLabels: manifest.MergeLabels(
			GetRuntimeLabels(),
			GetChromeRuntimeLabels(),
		),
	}
}
