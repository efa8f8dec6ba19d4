// Package logfinder locates the Team Fortress 2 console log.
package logfinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// EnvLogFile is the environment variable name for specifying the log file
// or the directory holding it.
const EnvLogFile = "TF2OBS_LOGFILE"

// ConsoleLogName is the file TF2 writes when launched with -condebug.
const ConsoleLogName = "console.log"

// Sentinel errors.
var (
	ErrLogFileNotFound = errors.New("console log not found")
	ErrNoLogFiles      = errors.New("no log files found")
)

// DefaultGameDirs returns candidate "tf" game directories in priority order.
// Candidates are derived from the usual Steam library locations; callers
// must check existence.
func DefaultGameDirs() []string {
	const rel = "steamapps/common/Team Fortress 2/tf"

	var roots []string
	for _, env := range []string{"ProgramFiles(x86)", "ProgramFiles"} {
		if v := os.Getenv(env); v != "" {
			roots = append(roots, filepath.Join(v, "Steam"))
		}
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		roots = append(roots,
			filepath.Join(home, ".steam", "steam"),
			filepath.Join(home, ".local", "share", "Steam"),
			filepath.Join(home, "Library", "Application Support", "Steam"),
		)
	}

	dirs := make([]string, 0, len(roots))
	for _, r := range roots {
		dirs = append(dirs, filepath.Join(r, filepath.FromSlash(rel)))
	}
	return dirs
}

// FindLogFile returns the console log to watch.
//
// Priority:
//  1. explicit (if non-empty)
//  2. TF2OBS_LOGFILE environment variable
//  3. Auto-detect from DefaultGameDirs()
//
// explicit and the environment variable may name a file or a directory.
// A named file that does not exist yet is accepted as long as its directory
// exists, since the game creates it on launch.
// Returns ErrLogFileNotFound if nothing usable is found.
func FindLogFile(explicit string) (string, error) {
	if explicit != "" {
		if resolved := resolveLogFile(explicit); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: %s is not a usable log file or directory", ErrLogFileNotFound, explicit)
	}

	if env := os.Getenv(EnvLogFile); env != "" {
		if resolved := resolveLogFile(env); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: %s environment variable points to an invalid path", ErrLogFileNotFound, EnvLogFile)
	}

	for _, dir := range DefaultGameDirs() {
		if latest, err := FindLatestLogFile(dir); err == nil {
			return latest, nil
		}
	}

	return "", ErrLogFileNotFound
}

// logCandidate holds a log file path and its cached modification time.
// This avoids race conditions where files are deleted between stat and sort.
type logCandidate struct {
	path    string
	modTime int64
}

// FindLatestLogFile returns console.log in dir if present, otherwise the
// most recently modified *.log file (for con_logfile setups).
//
// Returns ErrNoLogFiles if no log files are found.
func FindLatestLogFile(dir string) (string, error) {
	console := filepath.Join(dir, ConsoleLogName)
	if info, err := os.Lstat(console); err == nil && info.Mode().IsRegular() {
		return console, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.log"))
	if err != nil {
		return "", fmt.Errorf("globbing log files: %w", err)
	}

	candidates := make([]logCandidate, 0, len(matches))
	for _, m := range matches {
		info, err := os.Lstat(m)
		if err != nil {
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		candidates = append(candidates, logCandidate{
			path:    m,
			modTime: info.ModTime().UnixNano(),
		})
	}

	if len(candidates) == 0 {
		return "", ErrNoLogFiles
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime > candidates[j].modTime
	})

	return candidates[0].path, nil
}

// resolveLogFile resolves p to a log file path, or returns "" if p is unusable.
// Symlinks are resolved so the watcher and the poller see the same file.
func resolveLogFile(p string) string {
	info, err := os.Stat(p)
	switch {
	case err == nil && info.IsDir():
		resolved, err := filepath.EvalSymlinks(p)
		if err != nil {
			return ""
		}
		if latest, err := FindLatestLogFile(resolved); err == nil {
			return latest
		}
		// Game directory without a log yet: wait for console.log.
		return filepath.Join(resolved, ConsoleLogName)
	case err == nil && info.Mode().IsRegular():
		resolved, err := filepath.EvalSymlinks(p)
		if err != nil {
			return ""
		}
		return resolved
	case errors.Is(err, os.ErrNotExist):
		parent, perr := os.Stat(filepath.Dir(p))
		if perr != nil || !parent.IsDir() {
			return ""
		}
		return p
	default:
		return ""
	}
}
