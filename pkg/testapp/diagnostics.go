package testapp

import (
	"io"
	"os"
	"sync"
	"sync/atomic"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/marmos91/newsletter/internal/logger"
	"github.com/marmos91/newsletter/internal/telemetry"
)

const (
	// EnvTestLog enables log output when present, whatever its value.
	EnvTestLog = "TEST_LOG"

	// EnvTestLogLevel sets the level used when TEST_LOG is present.
	EnvTestLogLevel = "TEST_LOG_LEVEL"

	defaultTestLogLevel = "INFO"
	tracerServiceName   = "newsletter-test"
)

var (
	diagnosticsOnce     sync.Once
	diagnosticsInstalls atomic.Int32

	// diagnosticsTracer is the provider installed by the gate.
	diagnosticsTracer *sdktrace.TracerProvider
)

// ensureDiagnostics installs the process-wide logger and tracer exactly
// once, no matter how many TestApps start concurrently.
func ensureDiagnostics() {
	diagnosticsOnce.Do(installDiagnostics)
}

func installDiagnostics() {
	var (
		w     io.Writer = io.Discard
		level           = defaultTestLogLevel
	)
	if _, ok := os.LookupEnv(EnvTestLog); ok {
		w = os.Stdout
		if l := os.Getenv(EnvTestLogLevel); l != "" {
			level = l
		}
	}

	logger.InitWithWriter(w, level, "text", false)
	diagnosticsTracer = telemetry.InitLocal(tracerServiceName)

	diagnosticsInstalls.Add(1)
}
