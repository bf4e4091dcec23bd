// internal/docker/types.go
package docker

import "strings"

type Options struct {
	UserName  string // registry namespace
	ImageName string // local image name, built with -t
	Registry  string // optional registry host
	Tag       string // optional tag on the pushed ref

	Dockerfile  string      // default: "Dockerfile" (inside ContextPath)
	ContextPath string      // default: "."
	BuildArgs   [][2]string // KEY,VALUE (sorted by key)
	Labels      [][2]string // KEY,VALUE (sorted by key)
	Platform    string      // docker build --platform
	Pull        bool        // docker build --pull
	NoCache     bool        // docker build --no-cache

	Username string // docker login -u
	Password string // piped to --password-stdin; never printed

	Prune  bool            // append docker builder prune -a -f
	Checks map[string]bool // per-step failure check; missing means true
	DryRun bool            // print only
}

// TaggedName is the ref pushed to the registry.
func (o *Options) TaggedName() string {
	ref := TaggedName(o.UserName, o.ImageName)
	if r := strings.Trim(strings.TrimSpace(o.Registry), "/"); r != "" {
		ref = r + "/" + ref
	}
	if t := strings.TrimSpace(o.Tag); t != "" {
		ref += ":" + t
	}
	return ref
}

// TaggedName joins a namespace and an image name: "alice", "tool" -> "alice/tool".
func TaggedName(userName, imageName string) string {
	return userName + "/" + imageName
}
