package docker

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	goruntime "runtime"
	"strings"

	"imagepub/internal/version"
)

// ErrEnvironment marks problems with the local docker installation rather
// than with a step.
var ErrEnvironment = errors.New("docker environment")

// Preflight checks that the docker CLI is usable before any step runs.
// Build inputs are left to docker build, whose failure is a step failure.
// The zero value uses the real PATH and docker binary.
type Preflight struct {
	LookPath func(file string) (string, error)
	// ClientVersion returns the docker client version for the binary at path.
	ClientVersion func(ctx context.Context, path string) (string, error)
}

// Check resolves the docker binary and enforces minVersion when set. It
// returns the binary path.
func (p Preflight) Check(ctx context.Context, minVersion string) (string, error) {
	lookPath := p.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	clientVersion := p.ClientVersion
	if clientVersion == nil {
		clientVersion = dockerClientVersion
	}

	name := "docker"
	if goruntime.GOOS == "windows" {
		name = "docker.exe"
	}
	path, err := lookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: docker not found on PATH. see https://docs.docker.com/get-docker/", ErrEnvironment)
	}

	if strings.TrimSpace(minVersion) != "" {
		raw, err := clientVersion(ctx, path)
		if err != nil {
			return path, fmt.Errorf("%w: unable to get docker version: %v", ErrEnvironment, err)
		}
		if err := version.Require(raw, minVersion); err != nil {
			return path, fmt.Errorf("%w: docker client: %v", ErrEnvironment, err)
		}
	}
	return path, nil
}

func dockerClientVersion(ctx context.Context, path string) (string, error) {
	output, err := exec.CommandContext(ctx, path, "version", "--format", "{{.Client.Version}}").Output()
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n")
	if line == "" {
		return "", errors.New("empty version output")
	}
	return line, nil
}
