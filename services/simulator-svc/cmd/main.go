// Package main is the entry point for the pagesim simulator.
//
// simulator-svc simulates page replacement policies used by virtual memory
// managers and produces a replayable step-by-step trace of hits, faults and
// victim selections. It runs either as a one-shot CLI or as an HTTP service.
//
// # Service Overview
//
// The simulator exposes the following capabilities:
//   - Step-by-step traces for FIFO, LRU, MRU, Optimal and Second-Chance (Clock)
//   - Algorithm comparison on one input, ranked by page faults
//   - Capacity sweeps with Belady anomaly detection
//   - Playback sessions: step, back, jump, play, pause, reset
//   - Optional text explanations from an external generator, memoized in a cache
//   - Reports in text, CSV, Markdown, JSON, HTML, Excel and PDF
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────┐
//	│              Transport: HTTP/JSON API and CLI               │
//	│  (internal/handlers, internal/cli)                          │
//	│  Middleware: request id, recovery, CORS, tracing, metrics   │
//	├─────────────────────────────────────────────────────────────┤
//	│                      Service Layer                          │
//	│  (internal/service - SimulatorService)                      │
//	│  - Input validation against configured bounds               │
//	│  - Session registry and playback drivers                    │
//	│  - Explanations and report export                           │
//	├─────────────────────────────────────────────────────────────┤
//	│                       Core Layer                            │
//	│  (internal/policy, internal/trace, internal/session)        │
//	│  - Replacement policies (pure, deterministic)               │
//	│  - Trace builder, comparison, capacity sweep                │
//	│  - Session cursor state machine                             │
//	├─────────────────────────────────────────────────────────────┤
//	│                     Collaborators                           │
//	│  (internal/playback, internal/explainer, internal/report)   │
//	│  - Auto-advance ticker                                      │
//	│  - Text generation client with retries and caching          │
//	│  - Report generators                                        │
//	└─────────────────────────────────────────────────────────────┘
//
// # Commands
//
//	pagesim run        -a LRU -r "7,0,1,2,0,3,0,4,2,3,0,3,2" -f 3
//	pagesim compare    -e basic
//	pagesim sweep      -a FIFO -e belady3 --min 1 --max 5
//	pagesim export     -e basic --format pdf --comparison
//	pagesim play       -e basic --speed 3000
//	pagesim algorithms
//	pagesim examples
//	pagesim serve      -p 8080
//
// # Configuration
//
// Configuration is loaded with the following priority (highest to lowest):
//  1. Environment variables (prefix: PAGESIM_)
//  2. Config file (--config, $CONFIG_PATH, config.yaml, config/config.yaml, /etc/pagesim/config.yaml)
//  3. Default values
//
// Key configuration options (environment variable format):
//
//	# Application
//	PAGESIM_APP_NAME           - Service name (default: simulator-svc)
//	PAGESIM_APP_ENVIRONMENT    - Environment: development, staging, production
//
//	# HTTP Server
//	PAGESIM_HTTP_PORT             - HTTP port (default: 8080)
//	PAGESIM_HTTP_SHUTDOWN_TIMEOUT - Graceful shutdown timeout (default: 10s)
//	PAGESIM_HTTP_MAX_BODY_BYTES   - Request body limit (default: 1MB)
//	PAGESIM_HTTP_DOCS_ENABLED     - Serve Swagger UI and openapi.json (default: true)
//	PAGESIM_HTTP_DOCS_PATH        - Documentation prefix (default: /docs)
//
//	# Simulation
//	PAGESIM_SIMULATION_MIN_FRAMES           - Smallest frame count (default: 1)
//	PAGESIM_SIMULATION_MAX_FRAMES           - Largest frame count (default: 8)
//	PAGESIM_SIMULATION_MAX_REFERENCE_LENGTH - Longest reference string (default: 1000)
//	PAGESIM_SIMULATION_DEFAULT_ALGORITHM    - Algorithm when none is given (default: FIFO)
//
//	# Playback
//	PAGESIM_PLAYBACK_DEFAULT_SPEED - Speed when none is given (default: 2000)
//	PAGESIM_PLAYBACK_MAX_SESSIONS  - Concurrent sessions (default: 1000)
//	PAGESIM_PLAYBACK_SESSION_TTL   - Idle session lifetime (default: 1h)
//
//	# Explainer
//	PAGESIM_EXPLAINER_ENABLED - Enable text explanations (default: false)
//	PAGESIM_EXPLAINER_API_KEY - API key of the text generator
//	PAGESIM_EXPLAINER_TIMEOUT - Per-attempt timeout (default: 30s)
//	PAGESIM_EXPLAINER_RATE_LIMIT_REQUESTS - Explanation requests per window and client (default: 30)
//	PAGESIM_EXPLAINER_RATE_LIMIT_WINDOW   - Rate limit window (default: 1m)
//	PAGESIM_EXPLAINER_RATE_LIMIT_BACKEND  - Limiter state: memory, redis (default: memory)
//
//	# Caching
//	PAGESIM_CACHE_DRIVER - Explanation cache backend: memory, redis (default: memory)
//	PAGESIM_CACHE_HOST   - Redis host (default: localhost)
//
//	# Session journal
//	PAGESIM_AUDIT_ENABLED   - Record session actions (default: false)
//	PAGESIM_AUDIT_BACKEND   - stdout, file, memory (default: stdout)
//	PAGESIM_AUDIT_FILE_PATH - Journal file for the file backend (default: audit.log)
//
//	# Logging, Metrics, Tracing
//	PAGESIM_LOG_LEVEL        - Log level: debug, info, warn, error (default: info)
//	PAGESIM_METRICS_ENABLED  - Expose Prometheus metrics (default: true)
//	PAGESIM_TRACING_ENABLED  - Export OpenTelemetry spans (default: false)
//	PAGESIM_TRACING_ENDPOINT - OTLP gRPC endpoint (default: localhost:4317)
//
// # Graceful Shutdown
//
// serve handles SIGINT and SIGTERM:
//  1. Stops accepting connections and waits for in-flight requests
//  2. Stops playback drivers and the session janitor
//  3. Closes the explanation cache
//  4. Flushes telemetry and closes the log file
package main

import (
	"os"

	"pagesim/services/simulator-svc/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
