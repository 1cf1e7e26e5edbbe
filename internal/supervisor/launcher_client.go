package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/Migui-6/Launcher-VRacing/internal/config"
	"github.com/Migui-6/Launcher-VRacing/internal/logging"
	"github.com/Migui-6/Launcher-VRacing/internal/procquery"
)

// appIDPlaceholder is replaced by the app id in ClientProfile.URITemplate.
const appIDPlaceholder = "{app_id}"

// ClientProfile describes how to ask a distribution client to start a game.
type ClientProfile struct {
	Name        string
	Executables []string
	LaunchFlag  string
	URITemplate string
}

// DefaultClientProfile returns the Steam profile for this platform.
func DefaultClientProfile() ClientProfile {
	return ClientProfile{
		Name:        "steam",
		Executables: defaultClientExecutables(),
		LaunchFlag:  "-applaunch",
		URITemplate: "steam://rungameid/" + appIDPlaceholder,
	}
}

// ClientProfileFromConfig overlays configured values on the default
// profile.
func ClientProfileFromConfig(cfg config.ClientConfig) ClientProfile {
	profile := DefaultClientProfile()
	if name := strings.TrimSpace(cfg.Name); name != "" {
		profile.Name = name
	}
	if len(cfg.Executables) > 0 {
		profile.Executables = append([]string(nil), cfg.Executables...)
	}
	if flag := strings.TrimSpace(cfg.LaunchFlag); flag != "" {
		profile.LaunchFlag = flag
	}
	if tmpl := strings.TrimSpace(cfg.URITemplate); tmpl != "" {
		profile.URITemplate = tmpl
	}
	return profile
}

// ClientLaunch is the result of a client launch. Watcher is nil when the
// game process was found synchronously; otherwise the caller starts it.
type ClientLaunch struct {
	Handle     *TrackedHandle
	Watcher    *AttachWatcher
	LaunchTime time.Time
	ImageHint  string
}

// ClientLauncher starts games through a distribution client and locates
// the resulting game process.
type ClientLauncher struct {
	query   procquery.Query
	profile ClientProfile
	rank    *RankDetector
	diff    *DiffDetector
	timing  Timing

	spawn      func(path string, args []string) error
	openURI    func(uri string) error
	fileExists func(path string) bool
	now        func() time.Time
}

// NewClientLauncher builds a launcher sharing one exclusion set across both
// detectors.
func NewClientLauncher(query procquery.Query, profile ClientProfile, exclude procquery.ImageSet, timing Timing) *ClientLauncher {
	rank := NewRankDetector(query, exclude)
	rank.PollInterval = timing.PollInterval
	diff := NewDiffDetector(query, exclude)
	diff.PollInterval = timing.PollInterval

	return &ClientLauncher{
		query:      query,
		profile:    profile,
		rank:       rank,
		diff:       diff,
		timing:     timing,
		spawn:      spawnDetached,
		openURI:    openURI,
		fileExists: fileExists,
		now:        time.Now,
	}
}

// Launch asks the client to start cfg.ClientAppID, then spends up to
// DetectTimeout looking for the game process.
func (l *ClientLauncher) Launch(ctx context.Context, cfg *LaunchConfig) (*ClientLaunch, error) {
	appID := strings.TrimSpace(cfg.ClientAppID)
	if appID == "" {
		return nil, fmt.Errorf("%w: game %q has no client app id", ErrMissingField, cfg.label())
	}
	hint := procquery.NormalizeImage(cfg.ClientProcessName)
	log := logging.Component("launcher").With("game_id", cfg.GameID, "app_id", appID)

	launchTime := l.now()
	baseline := l.query.SnapshotImageNames(ctx)

	if err := l.invoke(appID); err != nil {
		return nil, err
	}

	var handle *TrackedHandle
	if c, ok := l.rank.Detect(ctx, launchTime, l.timing.DetectTimeout); ok {
		image := hint
		if image == "" {
			image = c.Image
		}
		handle = NewTrackedHandle(cfg.label(), l.query, c.PID, image)
		log.Info("game process detected", "pid", c.PID, "image", image, "rss", c.RSS)
	} else {
		if hint == "" {
			if name, ok := l.diff.Detect(ctx, baseline, l.timing.DetectTimeout); ok {
				hint = name
				log.Info("game image detected by snapshot diff", "image", name)
			}
		}
		handle = NewTrackedHandle(cfg.label(), l.query, 0, hint)
	}
	handle.waitInterval = l.timing.WaitInterval

	launch := &ClientLaunch{Handle: handle, LaunchTime: launchTime, ImageHint: handle.ImageHint()}
	if !handle.Resolved() {
		log.Info("game process not found yet, watching in background", "image", hint)
		launch.Watcher = NewAttachWatcher(handle, l.rank, launchTime, hint, l.timing)
	}
	return launch, nil
}

// invoke tries each existing client executable, then the URI handler.
func (l *ClientLauncher) invoke(appID string) error {
	log := logging.Component("launcher").With("client", l.profile.Name, "app_id", appID)
	var errs []error

	for _, path := range l.profile.Executables {
		if strings.TrimSpace(path) == "" || !l.fileExists(path) {
			continue
		}
		err := l.spawn(path, []string{l.profile.LaunchFlag, appID})
		if err == nil {
			log.Info("client invoked", "path", path)
			return nil
		}
		log.Warn("client executable failed", "path", path, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", path, err))
	}

	if l.profile.URITemplate != "" {
		uri := strings.ReplaceAll(l.profile.URITemplate, appIDPlaceholder, appID)
		err := l.openURI(uri)
		if err == nil {
			log.Info("client invoked through uri", "uri", uri)
			return nil
		}
		log.Warn("uri handler failed", "uri", uri, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", uri, err))
	}

	if len(errs) == 0 {
		errs = append(errs, fmt.Errorf("no %s executable found and no uri template configured", l.profile.Name))
	}
	return fmt.Errorf("%w: %w: %w", ErrLaunchFailed, ErrClientUnreachable, errors.Join(errs...))
}

func spawnDetached(path string, args []string) error {
	cmd := exec.Command(path, args...)
	configureDetached(cmd)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func openURI(uri string) error {
	cmd := openURICommand(uri)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
