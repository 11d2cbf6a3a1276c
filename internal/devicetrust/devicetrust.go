// Package devicetrust is a best-effort detector of rooted or instrumented
// environments, evaluated once before any session work begins.
//
// Every probe can be bypassed by a determined attacker. A positive answer
// is a reason to refuse to run, a negative one proves nothing.
package devicetrust

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/roundup/internal/logging"
)

// Platform describes the build being checked.
type Platform struct {
	// Release enables the USB-debugging signal, which is always on while
	// developing.
	Release bool
}

var rootPaths = []string{
	"/system/app/Superuser.apk",
	"/sbin/su",
	"/system/bin/su",
	"/system/xbin/su",
	"/system/sd/xbin/su",
	"/system/bin/failsafe/su",
	"/data/local/su",
	"/data/local/bin/su",
	"/data/local/xbin/su",
	"/su/bin/su",
	"/sbin/.magisk",
	"/data/adb/magisk",
	"/cache/.disable_magisk",
}

var instrumentationPaths = []string{
	"/data/local/tmp/frida-server",
	"/data/local/frida-server",
	"/data/local/tmp/re.frida.server",
	"/data/local/tmp/fs0",
	"/data/local/tmp/frida",
	"/dev/com.frida.piped",
}

var hookModules = []string{"frida", "xposed", "substrate"}

var instrumentationPorts = []int{27042, 27043}

// Probes are the side-effecting primitives the checks are built on.
// Zero fields fall back to the real system.
type Probes struct {
	Exists   func(path string) bool
	ReadFile func(path string) ([]byte, error)
	// Run executes a command and returns its trimmed stdout.
	Run  func(ctx context.Context, name string, args ...string) (string, error)
	Dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

type Checker struct {
	probes Probes
	log    logging.Logger
}

func NewChecker(p Probes, log logging.Logger) *Checker {
	if p.Exists == nil {
		p.Exists = exists
	}
	if p.ReadFile == nil {
		p.ReadFile = os.ReadFile
	}
	if p.Run == nil {
		p.Run = run
	}
	if p.Dial == nil {
		d := &net.Dialer{Timeout: 200 * time.Millisecond}
		p.Dial = d.DialContext
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Checker{probes: p, log: log}
}

type check struct {
	name string
	fn   func(ctx context.Context) bool
}

// IsCompromised runs the checks in order and stops at the first positive.
func (c *Checker) IsCompromised(ctx context.Context, p Platform) bool {
	signal, ok := c.Signal(ctx, p)
	if ok {
		c.log.Warn(ctx, "device trust check failed", "signal", signal)
	}
	return ok
}

// Signal is IsCompromised that also names the check that fired.
func (c *Checker) Signal(ctx context.Context, p Platform) (string, bool) {
	checks := []check{
		{"root binaries", c.rooted},
		{"instrumentation files", c.instrumentationFiles},
		{"usb debugging", func(ctx context.Context) bool { return p.Release && c.adbEnabled(ctx) }},
		{"debugger attached", c.debuggerAttached},
		{"hooking modules", c.hookModulesLoaded},
		{"instrumentation ports", c.instrumentationPortOpen},
		{"system properties", c.suspiciousProps},
	}
	for _, ch := range checks {
		if ctx.Err() != nil {
			return "", false
		}
		if ch.fn(ctx) {
			return ch.name, true
		}
	}
	return "", false
}

func (c *Checker) anyExists(paths []string) bool {
	for _, p := range paths {
		if c.probes.Exists(p) {
			return true
		}
	}
	return false
}

func (c *Checker) rooted(context.Context) bool {
	return c.anyExists(rootPaths)
}

func (c *Checker) instrumentationFiles(context.Context) bool {
	return c.anyExists(instrumentationPaths)
}

func (c *Checker) adbEnabled(ctx context.Context) bool {
	v, err := c.probes.Run(ctx, "settings", "get", "global", "adb_enabled")
	return err == nil && v == "1"
}

// debuggerAttached reads TracerPid from /proc/self/status.
func (c *Checker) debuggerAttached(context.Context) bool {
	b, err := c.probes.ReadFile("/proc/self/status")
	if err != nil {
		return false
	}
	pid, err := tracerPid(b)
	return err == nil && pid != 0
}

func tracerPid(status []byte) (int, error) {
	sc := bufio.NewScanner(bytes.NewReader(status))
	for sc.Scan() {
		v, ok := strings.CutPrefix(sc.Text(), "TracerPid:")
		if ok {
			return strconv.Atoi(strings.TrimSpace(v))
		}
	}
	return 0, errors.New("no TracerPid line")
}

// hookModulesLoaded looks for known hooking frameworks among the mapped
// shared objects of this process.
func (c *Checker) hookModulesLoaded(context.Context) bool {
	b, err := c.probes.ReadFile("/proc/self/maps")
	if err != nil {
		return false
	}
	maps := bytes.ToLower(b)
	for _, m := range hookModules {
		if bytes.Contains(maps, []byte(m)) {
			return true
		}
	}
	return false
}

func (c *Checker) instrumentationPortOpen(ctx context.Context) bool {
	for _, port := range instrumentationPorts {
		conn, err := c.probes.Dial(ctx, "tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
		if err == nil {
			_ = conn.Close()
			return true
		}
	}
	return false
}

func (c *Checker) suspiciousProps(ctx context.Context) bool {
	prop := func(name string) string {
		v, err := c.probes.Run(ctx, "getprop", name)
		if err != nil {
			return ""
		}
		return v
	}
	return prop("ro.debuggable") == "1" ||
		prop("ro.secure") == "0" ||
		strings.Contains(prop("ro.build.tags"), "test-keys")
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func run(ctx context.Context, name string, args ...string) (string, error) {
	if _, err := exec.LookPath(name); err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return strings.TrimSpace(string(out)), nil
}
