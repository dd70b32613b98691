package updater

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/creativeprojects/go-selfupdate"

	"github.com/dividr/rendernode/internal/logging"
	"github.com/dividr/rendernode/internal/version"
)

type service struct {
	repository selfupdate.Repository
	updater    *selfupdate.Updater

	// State management
	mu            sync.RWMutex
	state         State
	latestRelease *selfupdate.Release
	lastChecked   *time.Time
	lastError     error

	// Disabled state
	enabled        bool
	disabledReason string

	logger *slog.Logger
}

// NewService creates a new updater service. The service comes up in a
// disabled state when the binary's directory is not writable.
func NewService(opts *Options) (Service, error) {
	logger := logging.GetLogger("updater")

	canWrite, reason := checkWritePermission()
	if !canWrite {
		logger.Warn("Update service disabled", "reason", reason)
		return &service{
			enabled:        false,
			disabledReason: reason,
			state:          StateIdle,
			logger:         logger,
		}, nil
	}

	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub source: %w", err)
	}

	up, err := selfupdate.NewUpdater(selfupdate.Config{
		Source:     source,
		Prerelease: opts.Prerelease,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create updater: %w", err)
	}

	return &service{
		repository: selfupdate.ParseSlug(opts.Repository),
		updater:    up,
		state:      StateIdle,
		enabled:    true,
		logger:     logger,
	}, nil
}

func checkWritePermission() (bool, string) {
	exe, err := os.Executable()
	if err != nil {
		return false, fmt.Sprintf("failed to get executable path: %v", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return false, fmt.Sprintf("failed to resolve symlinks: %v", err)
	}

	dir := filepath.Dir(exe)

	tmp := filepath.Join(dir, ".rendernode.update.test")
	f, err := os.Create(tmp)
	if err != nil {
		return false, fmt.Sprintf("no write permission to %s: %v", dir, err)
	}
	f.Close()
	os.Remove(tmp)
	return true, ""
}

// IsEnabled returns whether the update service is operational.
func (s *service) IsEnabled() bool {
	return s.enabled
}

// DisabledReason returns why the update service is disabled.
// Returns empty string if the service is enabled.
func (s *service) DisabledReason() string {
	return s.disabledReason
}

// CheckForUpdate queries GitHub for the latest release and compares
// it against the current version. Returns update info without downloading.
func (s *service) CheckForUpdate(ctx context.Context) (*UpdateInfo, error) {
	if !s.enabled {
		return nil, newError(ErrCodeDisabled, s.disabledReason, nil)
	}

	if !s.transitionTo(StateChecking, StateIdle, StateAvailable, StateError) {
		return nil, newError(ErrCodeInvalidState,
			fmt.Sprintf("cannot check for updates in state %s", s.getState()), nil)
	}

	currentVersion := version.Version

	release, found, err := s.updater.DetectLatest(ctx, s.repository)
	if err != nil {
		s.setError(err)
		return nil, newError(ErrCodeCheckFailed, "failed to check for updates", err)
	}

	now := time.Now()
	s.mu.Lock()
	s.lastChecked = &now
	s.mu.Unlock()

	if !found {
		s.setError(fmt.Errorf("repository not found or has no releases"))
		return nil, newError(ErrCodeNotFound, "repository not found or has no releases", nil)
	}

	// dev builds are always considered outdated
	isNewer := currentVersion == "dev" || release.GreaterThan(currentVersion)

	if !isNewer {
		s.transitionTo(StateIdle)
		return &UpdateInfo{
			CurrentVersion:  currentVersion,
			LatestVersion:   release.Version(),
			UpdateAvailable: false,
		}, nil
	}

	s.mu.Lock()
	s.latestRelease = release
	s.mu.Unlock()
	s.transitionTo(StateAvailable)

	return &UpdateInfo{
		CurrentVersion:  currentVersion,
		LatestVersion:   release.Version(),
		ReleaseNotes:    release.ReleaseNotes,
		ReleaseURL:      release.URL,
		PublishedAt:     release.PublishedAt,
		AssetSize:       release.AssetByteSize,
		UpdateAvailable: true,
	}, nil
}

// ApplyUpdate downloads and applies the latest update, replacing the
// current binary in place. Triggers SIGTERM so the supervising init
// system restarts us on the new version.
func (s *service) ApplyUpdate(ctx context.Context) error {
	if !s.enabled {
		return newError(ErrCodeDisabled, s.disabledReason, nil)
	}

	// If in idle state, check for updates first
	if s.getState() == StateIdle {
		info, err := s.CheckForUpdate(ctx)
		if err != nil {
			return err
		}
		if !info.UpdateAvailable {
			return newError(ErrCodeNoUpdate, "no update available", nil)
		}
	}

	if !s.transitionTo(StateDownloading, StateAvailable) {
		return newError(ErrCodeInvalidState,
			fmt.Sprintf("cannot apply update in state %s", s.getState()), nil)
	}

	s.transitionTo(StateApplying)

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		s.setError(err)
		return newError(ErrCodeApplyFailed, "failed to get executable path", err)
	}

	s.mu.RLock()
	release := s.latestRelease
	s.mu.RUnlock()

	if err := s.updater.UpdateTo(ctx, release, exe); err != nil {
		s.setError(err)
		return newError(ErrCodeApplyFailed, "failed to apply update", err)
	}

	s.transitionTo(StateRestarting)
	s.logger.Info("Update applied successfully, triggering restart",
		"version", release.Version())

	// Restart after a short delay so the HTTP response can be sent
	go func() {
		time.Sleep(500 * time.Millisecond)
		s.triggerRestart()
	}()

	return nil
}

// GetStatus returns the current update state including version info
// and any errors.
func (s *service) GetStatus(_ context.Context) *Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := &Status{
		State:          s.state,
		CurrentVersion: version.Version,
		LastChecked:    s.lastChecked,
	}

	if s.latestRelease != nil {
		status.TargetVersion = s.latestRelease.Version()
	}

	if s.lastError != nil {
		status.Error = s.lastError.Error()
	}

	return status
}

func (s *service) transitionTo(newState State, validFromStates ...State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(validFromStates) > 0 && !slices.Contains(validFromStates, s.state) {
		return false
	}

	s.logger.Debug("State transition", "from", s.state, "to", newState)
	s.state = newState
	s.lastError = nil
	return true
}

func (s *service) getState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *service) setError(err error) {
	s.mu.Lock()
	s.lastError = err
	s.state = StateError
	s.mu.Unlock()
}

func (s *service) triggerRestart() {
	proc, err := os.FindProcess(os.Getpid())
	if err != nil {
		s.logger.Error("Failed to find own process", "error", err)
		return
	}

	s.logger.Info("Sending SIGTERM to trigger restart")
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		s.logger.Error("Failed to send SIGTERM", "error", err)
	}
}
