package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// localStateFile is written by the browser once a profile is initialized.
const localStateFile = "Local State"

// ProfileStore maps profile names to directories under BaseDir. Profile
// directories are created by the browser and never deleted here.
type ProfileStore struct {
	BaseDir string
}

// NewProfileStore creates baseDir if needed.
func NewProfileStore(baseDir string) (*ProfileStore, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve profile dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create profile dir: %w", err)
	}
	return &ProfileStore{BaseDir: abs}, nil
}

// ValidateProfileName rejects names that are not a single path element.
func ValidateProfileName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidProfileName, name)
	}
	return nil
}

// Path returns the absolute directory for a profile.
func (s *ProfileStore) Path(name string) (string, error) {
	if err := ValidateProfileName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.BaseDir, name), nil
}

// Exists reports whether the profile directory exists.
func (s *ProfileStore) Exists(name string) bool {
	path, err := s.Path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Require returns the profile path or *ProfileNotFoundError.
func (s *ProfileStore) Require(name string) (string, error) {
	path, err := s.Path(name)
	if err != nil {
		return "", err
	}
	if !s.Exists(name) {
		return "", &ProfileNotFoundError{Name: name, Path: path}
	}
	return path, nil
}

// Ensure creates the profile directory if it does not exist and returns
// its path.
func (s *ProfileStore) Ensure(name string) (string, error) {
	path, err := s.Path(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("failed to create profile %q: %w", name, err)
	}
	return path, nil
}

// List returns the names of all profile directories, sorted.
func (s *ProfileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Initialized reports whether the browser has written its Local State file.
func (s *ProfileStore) Initialized(name string) bool {
	path, err := s.Path(name)
	if err != nil {
		return false
	}
	return fileExists(filepath.Join(path, localStateFile))
}

func (s *ProfileStore) lockPath(name string) string {
	return filepath.Join(s.BaseDir, name+".lock")
}

// WaitInitialized blocks until the browser has created the profile's
// Local State file or ctx is done.
func (s *ProfileStore) WaitInitialized(ctx context.Context, name string) error {
	dir, err := s.Path(name)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// The browser may not have created the directory yet; watch the parent
	// until it exists.
	watchDir := dir
	if _, err := os.Stat(dir); err != nil {
		watchDir = s.BaseDir
	}
	if err := watcher.Add(watchDir); err != nil {
		return fmt.Errorf("watch %s: %w", watchDir, err)
	}

	if s.Initialized(name) {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			return err
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			if watchDir == s.BaseDir && event.Name == dir && event.Op&fsnotify.Create != 0 {
				if err := watcher.Add(dir); err == nil {
					watchDir = dir
				}
			}
			if s.Initialized(name) {
				return nil
			}
		}
	}
}

// EnsureCleanExit marks the profile's last session as cleanly exited so a
// force-killed browser does not offer to restore pages on the next launch.
func EnsureCleanExit(userDataDir string) error {
	prefsPath := filepath.Join(userDataDir, "Default", "Preferences")
	data, err := os.ReadFile(prefsPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var prefs map[string]any
	if err := json.Unmarshal(data, &prefs); err != nil {
		return fmt.Errorf("parse %s: %w", prefsPath, err)
	}

	profile, _ := prefs["profile"].(map[string]any)
	if profile == nil {
		profile = make(map[string]any)
		prefs["profile"] = profile
	}
	if profile["exit_type"] == "Normal" && profile["exited_cleanly"] == true {
		return nil
	}
	profile["exit_type"] = "Normal"
	profile["exited_cleanly"] = true

	out, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	return os.WriteFile(prefsPath, out, 0644)
}

func writeLockOwner(file *os.File) {
	_ = file.Truncate(0)
	_, _ = file.Seek(0, 0)
	fmt.Fprintf(file, "%d\n", os.Getpid())
	_ = file.Sync()
}
