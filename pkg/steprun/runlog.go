package steprun

import (
	"fmt"
	"log"
	"strings"

	"github.com/sre-norns/gantry/pkg/suite"
)

// RunLog accumulates the narrative of a suite run and packages it as a
// text artifact posted with the run's outcome
type RunLog struct {
	content strings.Builder
}

func (l *RunLog) Log(v ...any) {
	fmt.Fprint(&l.content, v...)
	fmt.Fprint(&l.content, "\n")

	log.Print(v...)
}

func (l *RunLog) Logf(format string, v ...any) {
	l.Log(fmt.Sprintf(format, v...))
}

func (l *RunLog) ToArtifact() suite.ArtifactValue {
	return suite.ArtifactValue{
		Rel:      "log",
		MimeType: "text/plain",
		Content:  []byte(l.content.String()),
	}
}
