package startup

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"media-ingest/internal/logging"
)

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// LogSection logs a section header.
func LogSection(title string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("%s", title)
	logging.Info("------------------------------------------------------------")
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration, maxID int64) {
	LogSection("DATABASE INITIALIZATION")
	logging.Info("  [OK] Database initialized in %v", duration)
	logging.Info("  Item ids continue after %d", maxID)
}

// LogThumbnailInit logs the thumbnail pipeline setup and checks for ffmpeg,
// which video thumbnails need.
func LogThumbnailInit(vips bool, gateLimit int) {
	LogSection("THUMBNAIL PIPELINE")
	logging.Info("  Concurrent thumbnails: %d", gateLimit)
	if vips {
		logging.Info("  [OK] libvips available")
	} else {
		logging.Info("  libvips not available, using pure Go decoders")
	}
	if path, err := exec.LookPath("ffmpeg"); err != nil {
		logging.Warn("  ffmpeg not found in PATH, video thumbnails will fail")
	} else {
		logging.Info("  [OK] ffmpeg found at %s", path)
	}
}

// LogSources logs the registered sources.
func LogSources(names []string) {
	LogSection("SOURCES")
	for _, name := range names {
		logging.Info("  [OK] %s", name)
	}
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes at debug level.
func LogHTTPRoutes(router *mux.Router) {
	LogSection("HTTP SERVER SETUP")
	if !logging.IsDebugEnabled() {
		return
	}

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})

	logging.Debug("  Registered routes (%d total):", len(routes))
	group := "\x00"
	for _, route := range routes {
		if g := getRouteGroup(route.Path); g != group {
			group = g
			logging.Debug("  [%s]", orRoot(g))
		}
		logging.Debug("    %-6s %s", route.Method, route.Path)
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")
	parts := strings.SplitN(path, "/", 3)
	if parts[0] == "api" && len(parts) > 1 {
		return "api/" + parts[1]
	}
	return parts[0]
}

func orRoot(group string) string {
	if group == "" {
		return "root"
	}
	return group
}

// LogServerStarted logs the listening address.
func LogServerStarted(port string, startup time.Duration) {
	LogSection("SERVER STARTED")
	logging.Info("  Startup time:    %v", startup)
	logging.Info("  Application:     http://0.0.0.0:%s", port)
	logging.Info("  Metrics:         http://0.0.0.0:%s/metrics", port)
	logging.Info("  Events:          http://0.0.0.0:%s/api/events", port)
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	LogSection(fmt.Sprintf("SHUTDOWN INITIATED (received %s)", signal))
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

func printBanner() {
	banner := `
------------------------------------------------------------
   __  ___       ___         ____                  __
  /  |/  /__ ___/ (_)__ _   /  _/__  ___ ____ ___ / /_
 / /|_/ / -_) _  / / _ '/  _/ // _ \/ _ '/ -_|_-</ __/
/_/  /_/\__/\_,_/_/\_,_/  /___/_//_/\_, /\__/___/\__/
                                   /___/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}
	logging.Info("")
}
